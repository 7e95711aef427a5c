package native

import (
	"fmt"

	sys "golang.org/x/sys/unix"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// osSpecificDetails holds Linux specific thread details.
type osSpecificDetails struct {
	registers sys.PtraceRegs

	// delayedSignal holds a signal harvested while stopping the world,
	// to be redelivered when the thread next runs.
	delayedSignal int
}

// suspend halts a running thread with a directed stop signal and harvests
// the resulting trace stop. Signals that arrive instead of ours are queued
// for redelivery.
func (t *nativeThread) suspend() error {
	if err := sys.Tgkill(t.dbp.pid, t.ID, sys.SIGSTOP); err != nil {
		return fmt.Errorf("halt err %s on thread %d", err, t.ID)
	}
	for {
		wpid, status, err := t.dbp.waitFast(t.ID)
		if err != nil {
			return err
		}
		if wpid != t.ID {
			continue
		}
		if status.Exited() || status.Signaled() {
			return sys.ESRCH
		}
		if sig := status.StopSignal(); sig != sys.SIGSTOP {
			// Not our stop. Queue the signal for redelivery and let the
			// thread run again so the directed stop can be delivered.
			t.os.delayedSignal = int(sig)
			t.dbp.execPtraceFunc(func() { err = ptraceCont(t.ID, 0) })
			if err != nil {
				return err
			}
			continue
		}
		t.state = proc.ThreadSuspended
		return nil
	}
}

func (t *nativeThread) resume() error {
	sig := t.os.delayedSignal
	t.os.delayedSignal = 0
	return t.resumeWithSig(sig)
}

func (t *nativeThread) resumeWithSig(sig int) (err error) {
	t.dbp.execPtraceFunc(func() { err = ptraceCont(t.ID, sig) })
	if err == nil {
		t.state = proc.ThreadRunning
	}
	return
}

// step resumes the thread for a single instruction. The completion trap is
// reported through the process wait, so only mark the thread here.
func (t *nativeThread) step() error {
	if t.dbp.pending.valid {
		t.dbp.pending.reset()
	}
	t.dbp.os.regionCache.Purge()
	t.stepping = true
	var err error
	t.dbp.execPtraceFunc(func() { err = ptraceSingleStep(t.ID, 0) })
	if err != nil {
		t.stepping = false
		return errcode.Translate(err)
	}
	t.state = proc.ThreadRunning
	return nil
}
