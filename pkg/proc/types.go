package proc

import (
	"encoding/binary"

	"github.com/go-dbgsrv/dbgsrv/pkg/platform"
)

// StopEvent is the coarse classification of the last thing that happened to
// a thread: nothing yet, a stop the caller must resolve, or a terminal exit
// or kill.
type StopEvent uint8

const (
	EventNone StopEvent = iota
	EventStop
	EventExit
	EventKill
)

func (e StopEvent) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventStop:
		return "stop"
	case EventExit:
		return "exit"
	case EventKill:
		return "kill"
	}
	return "unknown"
}

// Terminal returns true if the event implies the owning thread or process
// accepts no further resume calls.
func (e StopEvent) Terminal() bool {
	return e == EventExit || e == EventKill
}

// StopReason refines an EventStop.
type StopReason uint8

const (
	ReasonNone StopReason = iota
	ReasonBreakpoint
	ReasonTrace // single step completed
	ReasonSignal
	ReasonMemoryError
	ReasonMemoryAlignment
	ReasonMathError
	ReasonInstructionError
	ReasonLibraryEvent
	ReasonThreadExit
	ReasonDebugOutput
)

func (r StopReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBreakpoint:
		return "breakpoint"
	case ReasonTrace:
		return "trace"
	case ReasonSignal:
		return "signal"
	case ReasonMemoryError:
		return "memory error"
	case ReasonMemoryAlignment:
		return "memory alignment"
	case ReasonMathError:
		return "math error"
	case ReasonInstructionError:
		return "instruction error"
	case ReasonLibraryEvent:
		return "library event"
	case ReasonThreadExit:
		return "thread exit"
	case ReasonDebugOutput:
		return "debug output"
	}
	return "unknown"
}

// StopInfo describes the last reported stop of a thread. Event and Reason
// are always set together; Signal carries the delivered signal number for
// ReasonSignal stops and ExitStatus the exit status for terminal events.
type StopInfo struct {
	Event      StopEvent
	Reason     StopReason
	Signal     int
	ExitStatus int
}

// ThreadState is the run state of a single debuggee thread.
type ThreadState uint8

const (
	ThreadInvalid ThreadState = iota
	ThreadRunning
	ThreadSuspended
	ThreadStopped
	ThreadTerminated
)

func (s ThreadState) String() string {
	switch s {
	case ThreadRunning:
		return "running"
	case ThreadSuspended:
		return "suspended"
	case ThreadStopped:
		return "stopped"
	case ThreadTerminated:
		return "terminated"
	}
	return "invalid"
}

// MemProt is the portable memory protection bitmask.
type MemProt uint32

const (
	ProtRead MemProt = 1 << iota
	ProtWrite
	ProtExec
)

// ProcessInfo holds the cached attributes of a debuggee process. It is
// computed once per process identity by UpdateInfo.
type ProcessInfo struct {
	PID     int
	RealUID int
	RealGID int

	CPUType    platform.CPUType
	CPUSubType platform.CPUSubType

	// NativeCPUType and NativeCPUSubType mirror the portable pair; they
	// are reserved for object formats that report a different encoding.
	NativeCPUType    platform.CPUType
	NativeCPUSubType platform.CPUSubType

	Endian      binary.ByteOrder
	PointerSize int

	// ArchFlags is reserved metadata; nothing consumes it.
	ArchFlags uint32

	OSType   string
	OSVendor string
}

// MemoryRegionInfo describes the mapping containing an address. Produced
// fresh per call, never retained by the process.
type MemoryRegionInfo struct {
	Start      uint64
	Length     uint64
	Protection MemProt
}

// SharedLibraryInfo describes one module mapped into the debuggee. Main is
// set on the first module reported by the host (the executable image);
// Sections holds one or more load addresses.
type SharedLibraryInfo struct {
	Path     string
	Main     bool
	Sections []uint64
}
