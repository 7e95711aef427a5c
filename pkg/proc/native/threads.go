package native

import (
	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// nativeThread represents a single thread of the debuggee.
type nativeThread struct {
	ID  int // Thread ID, or port on darwin
	dbp *nativeProcess

	state    proc.ThreadState
	stopInfo proc.StopInfo

	// stepping marks a thread whose next trap is the completion of a
	// single instruction step rather than a breakpoint.
	stepping bool

	os *osSpecificDetails
}

var _ proc.Thread = (*nativeThread)(nil)

// ThreadID returns the identifier of this thread.
func (t *nativeThread) ThreadID() int {
	return t.ID
}

// State returns the execution state of this thread.
func (t *nativeThread) State() proc.ThreadState {
	return t.state
}

// StopInfo returns the description of this thread's most recent stop.
func (t *nativeThread) StopInfo() proc.StopInfo {
	return t.stopInfo
}

// Suspend halts the thread so that it will not run when the process is
// next resumed, until a matching Resume.
func (t *nativeThread) Suspend() error {
	if t.state == proc.ThreadTerminated {
		return errcode.ErrProcessGone
	}
	if t.state == proc.ThreadSuspended {
		return nil
	}
	return errcode.Translate(t.suspend())
}

// Resume lets the thread run again. If the process stop event is pending on
// this process it is acknowledged to the host first, regardless of which
// thread produced it; the host will not deliver further events until then.
func (t *nativeThread) Resume() error {
	if t.state == proc.ThreadTerminated {
		return errcode.ErrProcessGone
	}
	if t.dbp.pending.valid {
		if err := t.dbp.resolvePendingEvent(); err != nil {
			return err
		}
	}
	return errcode.Translate(t.resume())
}
