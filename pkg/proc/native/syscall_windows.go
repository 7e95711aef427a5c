//go:generate go run $GOROOT/src/syscall/mksyscall_windows.go -output zsyscall_windows.go syscall_windows.go

package native

import (
	"syscall"
)

type _CREATE_PROCESS_DEBUG_INFO struct {
	File                syscall.Handle
	Process             syscall.Handle
	Thread              syscall.Handle
	BaseOfImage         uintptr
	DebugInfoFileOffset uint32
	DebugInfoSize       uint32
	ThreadLocalBase     uintptr
	StartAddress        uintptr
	ImageName           uintptr
	Unicode             uint16
}

type _CREATE_THREAD_DEBUG_INFO struct {
	Thread          syscall.Handle
	ThreadLocalBase uintptr
	StartAddress    uintptr
}

type _EXIT_THREAD_DEBUG_INFO struct {
	ExitCode uint32
}

type _EXIT_PROCESS_DEBUG_INFO struct {
	ExitCode uint32
}

type _LOAD_DLL_DEBUG_INFO struct {
	File                syscall.Handle
	BaseOfDll           uintptr
	DebugInfoFileOffset uint32
	DebugInfoSize       uint32
	ImageName           uintptr
	Unicode             uint16
}

type _UNLOAD_DLL_DEBUG_INFO struct {
	BaseOfDll uintptr
}

type _OUTPUT_DEBUG_STRING_INFO struct {
	DebugStringData   uintptr
	Unicode           uint16
	DebugStringLength uint16
}

type _EXCEPTION_DEBUG_INFO struct {
	ExceptionRecord _EXCEPTION_RECORD
	FirstChance     uint32
}

type _EXCEPTION_RECORD struct {
	ExceptionCode        uint32
	ExceptionFlags       uint32
	ExceptionRecord      *_EXCEPTION_RECORD
	ExceptionAddress     uintptr
	NumberParameters     uint32
	ExceptionInformation [_EXCEPTION_MAXIMUM_PARAMETERS]uintptr
}

const (
	_DBG_CONTINUE              = 0x00010002
	_DBG_EXCEPTION_NOT_HANDLED = 0x80010001

	_EXCEPTION_DEBUG_EVENT      = 1
	_CREATE_THREAD_DEBUG_EVENT  = 2
	_CREATE_PROCESS_DEBUG_EVENT = 3
	_EXIT_THREAD_DEBUG_EVENT    = 4
	_EXIT_PROCESS_DEBUG_EVENT   = 5
	_LOAD_DLL_DEBUG_EVENT       = 6
	_UNLOAD_DLL_DEBUG_EVENT     = 7
	_OUTPUT_DEBUG_STRING_EVENT  = 8
	_RIP_EVENT                  = 9

	// DEBUG_ONLY_THIS_PROCESS tracks https://msdn.microsoft.com/en-us/library/windows/desktop/ms684863(v=vs.85).aspx
	_DEBUG_ONLY_THIS_PROCESS = 0x00000002
	_DEBUG_PROCESS           = 0x00000001

	_EXCEPTION_ACCESS_VIOLATION      = 0xC0000005
	_EXCEPTION_IN_PAGE_ERROR         = 0xC0000006
	_EXCEPTION_GUARD_PAGE            = 0x80000001
	_EXCEPTION_DATATYPE_MISALIGNMENT = 0x80000002
	_EXCEPTION_BREAKPOINT            = 0x80000003
	_EXCEPTION_SINGLE_STEP           = 0x80000004
	_EXCEPTION_ARRAY_BOUNDS_EXCEEDED = 0xC000008C
	_EXCEPTION_FLT_DENORMAL_OPERAND  = 0xC000008D
	_EXCEPTION_FLT_DIVIDE_BY_ZERO    = 0xC000008E
	_EXCEPTION_FLT_INEXACT_RESULT    = 0xC000008F
	_EXCEPTION_FLT_INVALID_OPERATION = 0xC0000090
	_EXCEPTION_FLT_OVERFLOW          = 0xC0000091
	_EXCEPTION_FLT_STACK_CHECK       = 0xC0000092
	_EXCEPTION_FLT_UNDERFLOW         = 0xC0000093
	_EXCEPTION_INT_DIVIDE_BY_ZERO    = 0xC0000094
	_EXCEPTION_INT_OVERFLOW          = 0xC0000095
	_EXCEPTION_PRIV_INSTRUCTION      = 0xC0000096
	_EXCEPTION_ILLEGAL_INSTRUCTION   = 0xC000001D
	_EXCEPTION_STACK_OVERFLOW        = 0xC00000FD

	_EXCEPTION_MAXIMUM_PARAMETERS = 15

	_MEM_COMMIT  = 0x1000
	_MEM_RESERVE = 0x2000
	_MEM_RELEASE = 0x8000

	_PAGE_EXECUTE           = 0x10
	_PAGE_EXECUTE_READ      = 0x20
	_PAGE_EXECUTE_READWRITE = 0x40
	_PAGE_NOACCESS          = 0x01
	_PAGE_READONLY          = 0x02
	_PAGE_READWRITE         = 0x04
)

type _DEBUG_EVENT struct {
	DebugEventCode uint32
	ProcessId      uint32
	ThreadId       uint32
	_              uint32 // to align Union properly
	U              [160]byte
}

//sys	_GetThreadContext(thread syscall.Handle, context *_CONTEXT) (err error) = kernel32.GetThreadContext
//sys	_SetThreadContext(thread syscall.Handle, context *_CONTEXT) (err error) = kernel32.SetThreadContext
//sys	_SuspendThread(threadid syscall.Handle) (prevsuspcount uint32, err error) [failretval==0xffffffff] = kernel32.SuspendThread
//sys	_ResumeThread(threadid syscall.Handle) (prevsuspcount uint32, err error) [failretval==0xffffffff] = kernel32.ResumeThread
//sys	_ContinueDebugEvent(processid uint32, threadid uint32, continuestatus uint32) (err error) = kernel32.ContinueDebugEvent
//sys	_WriteProcessMemory(process syscall.Handle, baseaddr uintptr, buffer *byte, size uintptr, byteswritten *uintptr) (err error) = kernel32.WriteProcessMemory
//sys	_ReadProcessMemory(process syscall.Handle, baseaddr uintptr, buffer *byte, size uintptr, bytesread *uintptr) (err error) = kernel32.ReadProcessMemory
//sys	_DebugBreakProcess(process syscall.Handle) (err error) = kernel32.DebugBreakProcess
//sys	_WaitForDebugEvent(debugevent *_DEBUG_EVENT, milliseconds uint32) (err error) = kernel32.WaitForDebugEvent
//sys	_DebugActiveProcess(processid uint32) (err error) = kernel32.DebugActiveProcess
//sys	_DebugActiveProcessStop(processid uint32) (err error) = kernel32.DebugActiveProcessStop
//sys	_VirtualAllocEx(process syscall.Handle, addr uintptr, size uintptr, allocType uint32, protect uint32) (base uintptr, err error) [failretval==0] = kernel32.VirtualAllocEx
//sys	_VirtualFreeEx(process syscall.Handle, addr uintptr, size uintptr, freeType uint32) (err error) = kernel32.VirtualFreeEx
//sys	_EnumProcessModules(process syscall.Handle, modules *syscall.Handle, size uint32, needed *uint32) (err error) = psapi.EnumProcessModules
//sys	_GetModuleFileNameExW(process syscall.Handle, module syscall.Handle, filename *uint16, size uint32) (n uint32, err error) [failretval==0] = psapi.GetModuleFileNameExW
