package native

import (
	"syscall"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// osSpecificDetails holds information specific to the Windows kernel.
type osSpecificDetails struct {
	hThread syscall.Handle
}

// suspend raises the thread's suspend count so that the eventual
// ContinueDebugEvent will not let it run.
func (t *nativeThread) suspend() error {
	if _, err := _SuspendThread(t.os.hThread); err != nil {
		return errcode.Translate(err)
	}
	if t.state == proc.ThreadRunning {
		t.state = proc.ThreadSuspended
	}
	return nil
}

func (t *nativeThread) resume() error {
	if _, err := _ResumeThread(t.os.hThread); err != nil {
		return errcode.Translate(err)
	}
	t.state = proc.ThreadRunning
	return nil
}

// step arms the processor trap flag and lets only this thread run. The
// completion is reported as a single step exception through the process
// wait.
func (t *nativeThread) step() error {
	context := newCONTEXT()
	context.ContextFlags = _CONTEXT_ALL

	if err := _GetThreadContext(t.os.hThread, context); err != nil {
		return errcode.Translate(err)
	}
	context.EFlags |= 0x100
	if err := _SetThreadContext(t.os.hThread, context); err != nil {
		return errcode.Translate(err)
	}

	if t.dbp.pending.valid {
		if err := t.dbp.resolvePendingEvent(); err != nil {
			return err
		}
	}

	t.stepping = true
	// The thread may carry more than one suspension if it was held while
	// stopped; unwind them all so the step actually runs.
	for {
		n, err := _ResumeThread(t.os.hThread)
		if err != nil {
			t.stepping = false
			return errcode.Translate(err)
		}
		if n <= 1 {
			break
		}
	}
	t.state = proc.ThreadRunning
	return nil
}

// clearTrapFlag disarms single stepping after the step trap was observed.
func (t *nativeThread) clearTrapFlag() error {
	context := newCONTEXT()
	context.ContextFlags = _CONTEXT_ALL

	if err := _GetThreadContext(t.os.hThread, context); err != nil {
		return errcode.Translate(err)
	}
	context.EFlags &= ^uint32(0x100)
	return errcode.Translate(_SetThreadContext(t.os.hThread, context))
}
