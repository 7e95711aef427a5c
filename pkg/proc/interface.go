// Package proc defines the portable contract between the process control
// core and the protocol layer above it, together with the value types that
// cross that boundary. The concrete per-host implementation lives in
// proc/native; this package has no host dependencies of its own.
package proc

// Process is the public contract of a debuggee under control. A Process is
// driven by a single control goroutine: the caller serializes all calls, and
// the only blocking operation is Wait.
type Process interface {
	// Pid returns the process ID of the debuggee.
	Pid() int

	// IsAlive returns false once a terminate-class event has been
	// harvested.
	IsAlive() bool

	// Wait blocks until the next stop event of interest and updates
	// CurrentThread. Thread lifecycle churn is absorbed internally and
	// never surfaces. After Terminate, Wait reports a kill event for the
	// cached current thread instead of blocking.
	Wait() error

	// Resume resolves the pending stop event and resumes every thread.
	// It fails with errcode.ErrProcessGone after a terminal event.
	Resume() error

	// StepThread resumes exactly one thread for one instruction while
	// every other thread remains held; the resulting stop arrives through
	// Wait with reason ReasonTrace.
	StepThread(tid int) error

	// Interrupt asynchronously requests a stop from a running debuggee.
	// It does not block; the stop itself arrives through Wait.
	Interrupt() error

	// Detach releases control of the debuggee, leaving it running. Valid
	// only before the effects of Terminate are observed.
	Detach() error

	// Terminate requests destruction of the debuggee.
	Terminate() error

	CurrentThread() Thread
	ThreadList() []Thread
	FindThread(tid int) (Thread, bool)

	// ReadMemory and WriteMemory perform bounded copies and report the
	// number of bytes actually transferred. A partial transfer with a
	// nonzero count is a success.
	ReadMemory(addr uint64, buf []byte) (int, error)
	WriteMemory(addr uint64, data []byte) (int, error)

	// ReadString reads up to maxLen bytes, stopping at the first null
	// terminator. Truncation is not an error.
	ReadString(addr uint64, maxLen int) (string, error)

	// AllocateMemory maps a region of at least size bytes in the debuggee
	// with the given protection and returns its address.
	AllocateMemory(size int, prot MemProt) (uint64, error)
	DeallocateMemory(addr uint64, size int) error

	// MemoryRegionInfo describes the mapping containing addr. Reports
	// errcode.ErrUnsupported on hosts without that facility.
	MemoryRegionInfo(addr uint64) (*MemoryRegionInfo, error)

	// UpdateInfo recomputes the cached process attributes. If they were
	// already computed for the current process identity it reports
	// errcode.ErrAlreadyExists and leaves them untouched.
	UpdateInfo() error
	Info() ProcessInfo

	// EnumerateSharedLibraries calls visit once per module currently
	// mapped into the debuggee. The first visited module is the main one
	// and paths never contain a host-specific separator.
	EnumerateSharedLibraries(visit func(SharedLibraryInfo)) error
}

// Thread represents one execution context of the debuggee.
type Thread interface {
	ThreadID() int
	State() ThreadState

	// StopInfo returns the last reported stop for this thread; it is
	// overwritten by each new native event.
	StopInfo() StopInfo

	Suspend() error
	Resume() error
}

// Spawner launches a new child process in a debuggable state. Run starts the
// child; Pid reports its identifier afterwards. The core attaches to, or
// inherits control of, the spawned process.
type Spawner interface {
	Run() error
	Pid() int
}
