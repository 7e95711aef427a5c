package native

import (
	"fmt"
	"syscall"
	"unsafe"

	sys "golang.org/x/sys/windows"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// osProcessDetails holds Windows specific information.
type osProcessDetails struct {
	hProcess   syscall.Handle
	entryPoint uint64
}

func (os *osProcessDetails) Close() {
	if os.hProcess != 0 {
		_ = syscall.CloseHandle(os.hProcess)
		os.hProcess = 0
	}
}

func hostAttach(pid int) error {
	// TODO: Probably should have SeDebugPrivilege before starting here.
	return _DebugActiveProcess(uint32(pid))
}

// waitInitialStop consumes the first debug event of a new debuggee. Windows
// always fires a CREATE_PROCESS_DEBUG_EVENT immediately after launching
// under DEBUG_ONLY_THIS_PROCESS; attaching with DebugActiveProcess has
// similar effect.
func (dbp *nativeProcess) waitInitialStop() error {
	if err := dbp.waitForDebugEvent(); err != nil {
		return err
	}
	if dbp.currentThread == nil {
		return errcode.ErrProcessGone
	}
	return nil
}

// part of VisualC protocol to set thread names
const _MS_VC_EXCEPTION = 0x406D1388

// waitForDebugEvent collects debug events until one of them is worth
// reporting. Thread births are absorbed, thread deaths are absorbed after
// bookkeeping, everything else suspends the debuggee and pends an event.
func (dbp *nativeProcess) waitForDebugEvent() error {
	var debugEvent _DEBUG_EVENT
	for {
		continueStatus := uint32(_DBG_CONTINUE)
		var err error
		dbp.execPtraceFunc(func() { err = _WaitForDebugEvent(&debugEvent, syscall.INFINITE) })
		if err != nil {
			return errcode.Translate(err)
		}
		unionPtr := unsafe.Pointer(&debugEvent.U[0])
		tid := int(debugEvent.ThreadId)

		switch debugEvent.DebugEventCode {
		case _CREATE_PROCESS_DEBUG_EVENT:
			debugInfo := (*_CREATE_PROCESS_DEBUG_INFO)(unionPtr)
			if debugInfo.File != 0 && debugInfo.File != syscall.InvalidHandle {
				if err := syscall.CloseHandle(debugInfo.File); err != nil {
					return errcode.Translate(err)
				}
			}
			if dbp.os.hProcess != 0 {
				panic("create process event received with process handle already set")
			}
			dbp.os.hProcess = debugInfo.Process
			dbp.os.entryPoint = uint64(debugInfo.BaseOfImage)
			th := dbp.addThread(debugInfo.Thread, tid)
			th.stopInfo = proc.StopInfo{Event: proc.EventStop}
			return dbp.reportStop(th, debugEvent.ThreadId)
		case _CREATE_THREAD_DEBUG_EVENT:
			debugInfo := (*_CREATE_THREAD_DEBUG_INFO)(unionPtr)
			dbp.eventLog.Debugf("thread %d created", tid)
			th := dbp.addThread(debugInfo.Thread, tid)
			th.state = proc.ThreadRunning
		case _EXIT_THREAD_DEBUG_EVENT:
			th := dbp.threads[tid]
			if th == nil {
				panic(fmt.Sprintf("exit event for unknown thread %d", tid))
			}
			dbp.eventLog.Debugf("thread %d exited", tid)
			th.state = proc.ThreadTerminated
			delete(dbp.threads, tid)
		case _LOAD_DLL_DEBUG_EVENT:
			debugInfo := (*_LOAD_DLL_DEBUG_INFO)(unionPtr)
			if debugInfo.File != 0 && debugInfo.File != syscall.InvalidHandle {
				if err := syscall.CloseHandle(debugInfo.File); err != nil {
					return errcode.Translate(err)
				}
			}
			th := dbp.eventThread(tid)
			th.stopInfo = proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonLibraryEvent}
			return dbp.reportStop(th, debugEvent.ThreadId)
		case _UNLOAD_DLL_DEBUG_EVENT:
			th := dbp.eventThread(tid)
			th.stopInfo = proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonLibraryEvent}
			return dbp.reportStop(th, debugEvent.ThreadId)
		case _OUTPUT_DEBUG_STRING_EVENT:
			th := dbp.eventThread(tid)
			th.stopInfo = proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonDebugOutput}
			return dbp.reportStop(th, debugEvent.ThreadId)
		case _RIP_EVENT:
		case _EXCEPTION_DEBUG_EVENT:
			exception := (*_EXCEPTION_DEBUG_INFO)(unionPtr)
			code := exception.ExceptionRecord.ExceptionCode
			if code == _MS_VC_EXCEPTION {
				// This exception is sent to set the thread name in VisualC,
				// we should mask it or it might crash the program.
				break
			}
			reason, known := classifyException(code)
			if !known {
				// Not one of ours. Hand it back to the debuggee's own
				// handlers.
				continueStatus = _DBG_EXCEPTION_NOT_HANDLED
				break
			}
			th := dbp.eventThread(tid)
			if reason == proc.ReasonTrace {
				th.stepping = false
				if err := th.clearTrapFlag(); err != nil {
					return err
				}
			}
			th.stopInfo = proc.StopInfo{Event: proc.EventStop, Reason: reason}
			dbp.eventLog.Debugf("thread %d stopped: %s/%s code=%#x", tid, th.stopInfo.Event, th.stopInfo.Reason, code)
			return dbp.reportStop(th, debugEvent.ThreadId)
		case _EXIT_PROCESS_DEBUG_EVENT:
			debugInfo := (*_EXIT_PROCESS_DEBUG_INFO)(unionPtr)
			if len(dbp.threads) != 1 {
				panic(fmt.Sprintf("process exit with %d threads still registered", len(dbp.threads)))
			}
			th := dbp.eventThread(tid)
			th.state = proc.ThreadTerminated
			th.stopInfo = proc.StopInfo{Event: proc.EventExit, ExitStatus: int(debugInfo.ExitCode)}
			dbp.eventLog.Debugf("process %d terminated: status=%d", dbp.pid, th.stopInfo.ExitStatus)
			dbp.currentThread = th
			if dbp.pending.valid {
				dbp.pending.reset()
			}
			dbp.execPtraceFunc(func() {
				err = _ContinueDebugEvent(debugEvent.ProcessId, debugEvent.ThreadId, _DBG_CONTINUE)
			})
			dbp.postTerminate()
			return errcode.Translate(err)
		default:
			return fmt.Errorf("unknown debug event code: %d", debugEvent.DebugEventCode)
		}

		// Absorbed event, let the debuggee run on.
		dbp.execPtraceFunc(func() {
			err = _ContinueDebugEvent(debugEvent.ProcessId, debugEvent.ThreadId, continueStatus)
		})
		if err != nil {
			return errcode.Translate(err)
		}
	}
}

// eventThread returns the thread a debug event was reported on. The kernel
// only reports events on threads it has announced, anything else is broken
// bookkeeping on our side.
func (dbp *nativeProcess) eventThread(tid int) *nativeThread {
	th := dbp.threads[tid]
	if th == nil {
		panic(fmt.Sprintf("debug event for unknown thread %d", tid))
	}
	return th
}

// reportStop suspends every running thread so that the eventual
// ContinueDebugEvent will not resume the debuggee, then pends the event.
func (dbp *nativeProcess) reportStop(th *nativeThread, eventTID uint32) error {
	for _, thread := range dbp.threads {
		if thread.state != proc.ThreadRunning && thread != th {
			continue
		}
		if err := thread.suspend(); err != nil {
			return err
		}
	}
	th.state = proc.ThreadStopped
	dbp.currentThread = th
	dbp.pending.set(int(eventTID))
	return nil
}

func classifyException(code uint32) (proc.StopReason, bool) {
	switch code {
	case _EXCEPTION_BREAKPOINT:
		return proc.ReasonBreakpoint, true
	case _EXCEPTION_SINGLE_STEP:
		return proc.ReasonTrace, true
	case _EXCEPTION_ACCESS_VIOLATION, _EXCEPTION_IN_PAGE_ERROR,
		_EXCEPTION_GUARD_PAGE, _EXCEPTION_ARRAY_BOUNDS_EXCEEDED,
		_EXCEPTION_STACK_OVERFLOW:
		return proc.ReasonMemoryError, true
	case _EXCEPTION_DATATYPE_MISALIGNMENT:
		return proc.ReasonMemoryAlignment, true
	case _EXCEPTION_FLT_DENORMAL_OPERAND, _EXCEPTION_FLT_DIVIDE_BY_ZERO,
		_EXCEPTION_FLT_INEXACT_RESULT, _EXCEPTION_FLT_INVALID_OPERATION,
		_EXCEPTION_FLT_OVERFLOW, _EXCEPTION_FLT_STACK_CHECK,
		_EXCEPTION_FLT_UNDERFLOW, _EXCEPTION_INT_DIVIDE_BY_ZERO,
		_EXCEPTION_INT_OVERFLOW:
		return proc.ReasonMathError, true
	case _EXCEPTION_ILLEGAL_INSTRUCTION, _EXCEPTION_PRIV_INSTRUCTION:
		return proc.ReasonInstructionError, true
	}
	return proc.ReasonNone, false
}

func (dbp *nativeProcess) addThread(hThread syscall.Handle, threadID int) *nativeThread {
	if thread, ok := dbp.threads[threadID]; ok {
		return thread
	}
	thread := &nativeThread{
		ID:    threadID,
		dbp:   dbp,
		state: proc.ThreadStopped,
		os:    new(osSpecificDetails),
	}
	thread.os.hThread = hThread
	dbp.threads[threadID] = thread
	return thread
}

// resume acknowledges the pending debug event and lets every thread of the
// debuggee run again.
func (dbp *nativeProcess) resume() error {
	if dbp.pending.valid {
		if err := dbp.resolvePendingEvent(); err != nil {
			return err
		}
	}
	for _, thread := range dbp.threads {
		if thread.state == proc.ThreadTerminated {
			continue
		}
		if err := thread.resume(); err != nil {
			return err
		}
	}
	return nil
}

// resolvePendingEvent acknowledges the pending stop with the kernel. The
// threads stay suspended because reportStop raised their suspend counts.
func (dbp *nativeProcess) resolvePendingEvent() error {
	var err error
	dbp.execPtraceFunc(func() {
		err = _ContinueDebugEvent(uint32(dbp.pid), uint32(dbp.pending.tid), _DBG_CONTINUE)
	})
	if err != nil {
		return errcode.Translate(err)
	}
	dbp.pending.reset()
	return nil
}

func (dbp *nativeProcess) requestManualStop() error {
	return errcode.Translate(_DebugBreakProcess(dbp.os.hProcess))
}

func (dbp *nativeProcess) hostDetach() error {
	if dbp.pending.valid {
		if err := dbp.resolvePendingEvent(); err != nil {
			return err
		}
	}
	for _, thread := range dbp.threads {
		if thread.state == proc.ThreadTerminated {
			continue
		}
		if _, err := _ResumeThread(thread.os.hThread); err != nil {
			return errcode.Translate(err)
		}
	}
	var err error
	dbp.execPtraceFunc(func() { err = _DebugActiveProcessStop(uint32(dbp.pid)) })
	return errcode.Translate(err)
}

// kill requests destruction of the debuggee. The kill event is synthesized
// by the next wait.
func (dbp *nativeProcess) kill() error {
	if err := syscall.TerminateProcess(dbp.os.hProcess, 1); err != nil {
		return errcode.Translate(err)
	}
	if dbp.pending.valid {
		dbp.pending.reset()
	}
	return nil
}

// fillHostInfo completes the process description. There are no POSIX
// credentials to report on this host.
func (dbp *nativeProcess) fillHostInfo(info *proc.ProcessInfo) error {
	return nil
}

// readMemory transfers memory out of the debuggee. The kernel reports
// partial transfers as ERROR_PARTIAL_COPY; with a nonzero count that is a
// success.
func (dbp *nativeProcess) readMemory(addr uint64, buf []byte) (int, error) {
	var count uintptr
	err := _ReadProcessMemory(dbp.os.hProcess, uintptr(addr), &buf[0], uintptr(len(buf)), &count)
	if err != nil && (err != syscall.Errno(sys.ERROR_PARTIAL_COPY) || count == 0) {
		return int(count), errcode.Translate(err)
	}
	return int(count), nil
}

func (dbp *nativeProcess) writeMemory(addr uint64, data []byte) (int, error) {
	var count uintptr
	err := _WriteProcessMemory(dbp.os.hProcess, uintptr(addr), &data[0], uintptr(len(data)), &count)
	if err != nil && (err != syscall.Errno(sys.ERROR_PARTIAL_COPY) || count == 0) {
		return int(count), errcode.Translate(err)
	}
	return int(count), nil
}

func protToPage(prot proc.MemProt) uint32 {
	switch {
	case prot&proc.ProtExec != 0 && prot&proc.ProtWrite != 0:
		return _PAGE_EXECUTE_READWRITE
	case prot&proc.ProtExec != 0 && prot&proc.ProtRead != 0:
		return _PAGE_EXECUTE_READ
	case prot&proc.ProtExec != 0:
		return _PAGE_EXECUTE
	case prot&proc.ProtWrite != 0:
		return _PAGE_READWRITE
	case prot&proc.ProtRead != 0:
		return _PAGE_READONLY
	default:
		return _PAGE_NOACCESS
	}
}

// allocateMemory commits a region inside the debuggee.
func (dbp *nativeProcess) allocateMemory(size int, prot proc.MemProt) (uint64, error) {
	base, err := _VirtualAllocEx(dbp.os.hProcess, 0, uintptr(size), _MEM_COMMIT|_MEM_RESERVE, protToPage(prot))
	if err != nil {
		return 0, errcode.Translate(err)
	}
	return uint64(base), nil
}

// deallocateMemory releases a region previously created by allocateMemory.
// The size must be zero for MEM_RELEASE, the whole allocation goes away.
func (dbp *nativeProcess) deallocateMemory(addr uint64, size int) error {
	return errcode.Translate(_VirtualFreeEx(dbp.os.hProcess, uintptr(addr), 0, _MEM_RELEASE))
}

// memoryRegionInfo is not provided on this host.
func (dbp *nativeProcess) memoryRegionInfo(addr uint64) (*proc.MemoryRegionInfo, error) {
	return nil, errcode.ErrUnsupported
}

// enumerateSharedLibraries reports each module loaded into the debuggee.
// The list is captured in two passes; modules that unload between the
// passes simply shorten the report, an empty one is not an error.
func (dbp *nativeProcess) enumerateSharedLibraries(visit func(proc.SharedLibraryInfo)) error {
	handleSize := uint32(unsafe.Sizeof(syscall.Handle(0)))
	var needed uint32
	if err := _EnumProcessModules(dbp.os.hProcess, nil, 0, &needed); err != nil {
		return errcode.Translate(err)
	}
	count := int(needed / handleSize)
	if count == 0 {
		return nil
	}
	modules := make([]syscall.Handle, count)
	if err := _EnumProcessModules(dbp.os.hProcess, &modules[0], needed, &needed); err != nil {
		return errcode.Translate(err)
	}
	if n := int(needed / handleSize); n < count {
		count = n
	}
	var buf [syscall.MAX_PATH]uint16
	for i, module := range modules[:count] {
		n, err := _GetModuleFileNameExW(dbp.os.hProcess, module, &buf[0], uint32(len(buf)))
		if err != nil {
			continue
		}
		visit(proc.SharedLibraryInfo{
			Path: proc.NormalizeModulePath(syscall.UTF16ToString(buf[:n])),
			Main: i == 0,
			// A module handle is the base address of the module.
			Sections: []uint64{uint64(module)},
		})
	}
	return nil
}
