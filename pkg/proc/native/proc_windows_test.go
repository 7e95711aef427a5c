package native

import (
	"testing"

	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

func TestClassifyException(t *testing.T) {
	for _, tc := range []struct {
		code   uint32
		reason proc.StopReason
		known  bool
	}{
		{_EXCEPTION_BREAKPOINT, proc.ReasonBreakpoint, true},
		{_EXCEPTION_SINGLE_STEP, proc.ReasonTrace, true},
		{_EXCEPTION_ACCESS_VIOLATION, proc.ReasonMemoryError, true},
		{_EXCEPTION_STACK_OVERFLOW, proc.ReasonMemoryError, true},
		{_EXCEPTION_DATATYPE_MISALIGNMENT, proc.ReasonMemoryAlignment, true},
		{_EXCEPTION_INT_DIVIDE_BY_ZERO, proc.ReasonMathError, true},
		{_EXCEPTION_FLT_OVERFLOW, proc.ReasonMathError, true},
		{_EXCEPTION_ILLEGAL_INSTRUCTION, proc.ReasonInstructionError, true},
		{_EXCEPTION_PRIV_INSTRUCTION, proc.ReasonInstructionError, true},
		{0xE0434352, proc.ReasonNone, false}, // CLR exception, not ours
	} {
		reason, known := classifyException(tc.code)
		if reason != tc.reason || known != tc.known {
			t.Errorf("classifyException(%#x) = %s, %v; want %s, %v", tc.code, reason, known, tc.reason, tc.known)
		}
	}
}

func TestProtToPage(t *testing.T) {
	for _, tc := range []struct {
		prot proc.MemProt
		page uint32
	}{
		{0, _PAGE_NOACCESS},
		{proc.ProtRead, _PAGE_READONLY},
		{proc.ProtRead | proc.ProtWrite, _PAGE_READWRITE},
		{proc.ProtWrite, _PAGE_READWRITE},
		{proc.ProtRead | proc.ProtExec, _PAGE_EXECUTE_READ},
		{proc.ProtRead | proc.ProtWrite | proc.ProtExec, _PAGE_EXECUTE_READWRITE},
		{proc.ProtExec, _PAGE_EXECUTE},
	} {
		if got := protToPage(tc.prot); got != tc.page {
			t.Errorf("protToPage(%v) = %#x, want %#x", tc.prot, got, tc.page)
		}
	}
}
