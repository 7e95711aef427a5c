package native

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	sys "golang.org/x/sys/unix"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
	lru "github.com/hashicorp/golang-lru"
)

// Process statuses
const (
	statusSleeping  = 'S'
	statusRunning   = 'R'
	statusTraceStop = 't'
	statusZombie    = 'Z'

	// Kernel 2.6 has TraceStop as T
	statusTraceStopT = 'T'
)

const regionCacheSize = 256

// osProcessDetails contains Linux specific process details.
type osProcessDetails struct {
	comm string

	// regionCache caches memory region lookups between stops. It is
	// purged whenever any thread of the debuggee runs.
	regionCache *lru.Cache
}

func (os *osProcessDetails) Close() {}

func hostAttach(pid int) error {
	return ptraceAttach(pid)
}

// waitInitialStop consumes the first trace stop of a new debuggee: the
// execve trap for launched processes, the attach stop otherwise. It then
// registers every task of the thread group.
func (dbp *nativeProcess) waitInitialStop() error {
	wpid, status, err := dbp.wait(dbp.pid, 0)
	if err != nil {
		return errcode.Translate(err)
	}
	if status != nil && (status.Exited() || status.Signaled()) {
		return errcode.ErrProcessGone
	}
	if err := dbp.initializeBasic(); err != nil {
		return err
	}
	th, err := dbp.addThread(wpid, false)
	if err != nil {
		return err
	}
	if err := dbp.updateThreadList(); err != nil {
		return err
	}
	for _, other := range dbp.threads {
		if other != th {
			other.state = proc.ThreadSuspended
		}
	}
	// Both the execve trap and the attach stop put the debuggee at a
	// well-defined instruction boundary, so report them as the initial
	// breakpoint-class stop.
	th.state = proc.ThreadStopped
	th.stopInfo = proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonBreakpoint}
	dbp.currentThread = th
	dbp.pending.set(th.ID)
	return nil
}

// initializeBasic reads the task name used by the status helper and builds
// the region cache.
func (dbp *nativeProcess) initializeBasic() error {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", dbp.pid))
	if err == nil {
		// removes newline character
		comm = bytes.TrimSuffix(comm, []byte("\n"))
	}

	if len(comm) == 0 {
		stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", dbp.pid))
		if err != nil {
			return errcode.Translate(err)
		}
		expr := fmt.Sprintf("%d\\s*\\((.*)\\)", dbp.pid)
		rexp, err := regexp.Compile(expr)
		if err != nil {
			return &errcode.UnknownError{Cause: err}
		}
		match := rexp.FindSubmatch(stat)
		if match == nil {
			return &errcode.UnknownError{Cause: fmt.Errorf("no match found using regexp '%s' in /proc/%d/stat", expr, dbp.pid)}
		}
		comm = match[1]
	}
	dbp.os.comm = strings.ReplaceAll(string(comm), "%", "%%")

	cache, err := lru.New(regionCacheSize)
	if err != nil {
		return errcode.Translate(err)
	}
	dbp.os.regionCache = cache
	return nil
}

// addThread sets trace options on a thread of the debuggee and stores it in
// our list of known threads. Threads spawned after we took control are
// already traced through PTRACE_O_TRACECLONE and do not need an attach.
func (dbp *nativeProcess) addThread(tid int, attach bool) (*nativeThread, error) {
	if thread, ok := dbp.threads[tid]; ok {
		return thread, nil
	}

	var err error
	if attach {
		dbp.execPtraceFunc(func() { err = sys.PtraceAttach(tid) })
		if err != nil && err != sys.EPERM {
			// Do not return err if err == EPERM,
			// we may already be tracing this thread due to
			// PTRACE_O_TRACECLONE. We will surely blow up later
			// if we truly don't have permissions.
			return nil, errcode.Translate(err)
		}
		_, status, err := dbp.waitFast(tid)
		if err != nil {
			return nil, errcode.Translate(err)
		}
		if status.Exited() {
			return nil, errcode.ErrProcessGone
		}
	}

	dbp.execPtraceFunc(func() { err = syscall.PtraceSetOptions(tid, syscall.PTRACE_O_TRACECLONE) })
	if err == syscall.ESRCH {
		if _, _, err = dbp.waitFast(tid); err != nil {
			return nil, errcode.Translate(err)
		}
		dbp.execPtraceFunc(func() { err = syscall.PtraceSetOptions(tid, syscall.PTRACE_O_TRACECLONE) })
		if err == syscall.ESRCH {
			return nil, errcode.ErrProcessGone
		}
	}
	if err != nil {
		return nil, errcode.Translate(err)
	}

	dbp.threads[tid] = &nativeThread{
		ID:    tid,
		dbp:   dbp,
		state: proc.ThreadStopped,
		os:    new(osSpecificDetails),
	}
	return dbp.threads[tid], nil
}

func (dbp *nativeProcess) updateThreadList() error {
	tids, _ := filepath.Glob(fmt.Sprintf("/proc/%d/task/*", dbp.pid))
	for _, tidpath := range tids {
		tidstr := filepath.Base(tidpath)
		tid, err := strconv.Atoi(tidstr)
		if err != nil {
			return errcode.Translate(err)
		}
		if _, err := dbp.addThread(tid, tid != dbp.pid); err != nil {
			return err
		}
	}
	return nil
}

// waitForDebugEvent collects native stops until one of them is worth
// reporting. Thread births are absorbed, thread deaths are absorbed after
// bookkeeping, everything else pends a process event.
func (dbp *nativeProcess) waitForDebugEvent() error {
	for {
		wpid, status, err := dbp.wait(-1, 0)
		if err != nil {
			return errcode.Translate(err)
		}
		if wpid == 0 {
			continue
		}
		th := dbp.threads[wpid]

		if status != nil && (status.Exited() || status.Signaled()) {
			if wpid == dbp.pid {
				dbp.reportProcessExit(th, status)
				return nil
			}
			// thread-exited: a secondary thread is gone. If we never knew
			// about it our bookkeeping is broken and nothing after this
			// point can be trusted.
			if th == nil {
				panic(fmt.Sprintf("exit event for unknown thread %d", wpid))
			}
			dbp.eventLog.Debugf("thread %d exited", wpid)
			th.state = proc.ThreadTerminated
			delete(dbp.threads, wpid)
			continue
		}

		if status.StopSignal() == sys.SIGTRAP && status.TrapCause() == sys.PTRACE_EVENT_CLONE {
			// A traced thread has cloned a new thread, grab the pid and
			// add it to our list of traced threads, then let both run on.
			var cloned uint
			dbp.execPtraceFunc(func() { cloned, err = sys.PtraceGetEventMsg(wpid) })
			if err != nil {
				if err == sys.ESRCH {
					// thread died while we were adding it
					continue
				}
				return errcode.Translate(err)
			}
			dbp.eventLog.Debugf("thread %d created", cloned)
			newth, err := dbp.addThread(int(cloned), false)
			if err != nil {
				if errors.Is(err, errcode.ErrProcessGone) {
					delete(dbp.threads, int(cloned))
					continue
				}
				return err
			}
			if err := newth.resume(); err != nil {
				if err == sys.ESRCH {
					delete(dbp.threads, newth.ID)
					continue
				}
				return errcode.Translate(err)
			}
			if th != nil {
				if err := th.resume(); err != nil && err != sys.ESRCH {
					return errcode.Translate(err)
				}
			}
			continue
		}

		if th == nil {
			// A task that raced with the attach-time listing. Register it
			// and fold it into this stop.
			th, err = dbp.addThread(wpid, false)
			if err != nil {
				return err
			}
		}

		sig := status.StopSignal()
		th.stopInfo = classifyStopSignal(th, sig)
		th.state = proc.ThreadStopped
		dbp.currentThread = th
		dbp.eventLog.Debugf("thread %d stopped: %s/%s sig=%d", wpid, th.stopInfo.Event, th.stopInfo.Reason, th.stopInfo.Signal)
		if err := dbp.suspendAllThreads(th); err != nil {
			return err
		}
		dbp.pending.set(th.ID)
		return nil
	}
}

func (dbp *nativeProcess) reportProcessExit(th *nativeThread, status *sys.WaitStatus) {
	// By the time the thread group leader reports its exit every other
	// task must already have been reaped.
	if len(dbp.threads) != 1 {
		panic(fmt.Sprintf("process exit with %d threads still registered", len(dbp.threads)))
	}
	if th == nil {
		panic(fmt.Sprintf("process exit event for unknown thread %d", dbp.pid))
	}
	si := proc.StopInfo{Event: proc.EventExit, ExitStatus: status.ExitStatus()}
	if status.Signaled() {
		si = proc.StopInfo{Event: proc.EventKill, Signal: int(status.Signal())}
	}
	dbp.eventLog.Debugf("process %d terminated: %s status=%d", dbp.pid, si.Event, si.ExitStatus)
	th.state = proc.ThreadTerminated
	th.stopInfo = si
	dbp.currentThread = th
	if dbp.pending.valid {
		dbp.pending.reset()
	}
	dbp.postTerminate()
}

// classifyStopSignal maps the signal that stopped a thread to a stop
// description.
func classifyStopSignal(th *nativeThread, sig sys.Signal) proc.StopInfo {
	if sig == sys.SIGTRAP {
		if th.stepping {
			th.stepping = false
			return proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonTrace}
		}
		return proc.StopInfo{Event: proc.EventStop, Reason: proc.ReasonBreakpoint}
	}
	si := proc.StopInfo{Event: proc.EventStop, Signal: int(sig)}
	switch sig {
	case sys.SIGSEGV, sys.SIGBUS:
		si.Reason = proc.ReasonMemoryError
	case sys.SIGFPE:
		si.Reason = proc.ReasonMathError
	case sys.SIGILL:
		si.Reason = proc.ReasonInstructionError
	default:
		si.Reason = proc.ReasonSignal
	}
	return si
}

// suspendAllThreads halts every thread that was still running when trapth
// stopped, so the debuggee is fully quiescent while the event is examined.
func (dbp *nativeProcess) suspendAllThreads(trapth *nativeThread) error {
	for _, th := range dbp.threads {
		if th == trapth || th.state != proc.ThreadRunning {
			continue
		}
		if err := th.suspend(); err != nil {
			if err == sys.ESRCH {
				delete(dbp.threads, th.ID)
				continue
			}
			return errcode.Translate(err)
		}
	}
	return nil
}

// resume lets every thread of the debuggee run again. Signals harvested
// while stopping the world are redelivered.
func (dbp *nativeProcess) resume() error {
	if dbp.pending.valid {
		dbp.pending.reset()
	}
	dbp.os.regionCache.Purge()
	for _, th := range dbp.threads {
		if th.state == proc.ThreadTerminated {
			continue
		}
		if err := th.resume(); err != nil && err != sys.ESRCH {
			return errcode.Translate(err)
		}
	}
	return nil
}

// resolvePendingEvent acknowledges the pending stop. On this host the
// kernel needs no explicit acknowledgement, resuming the thread is enough.
func (dbp *nativeProcess) resolvePendingEvent() error {
	dbp.pending.reset()
	return nil
}

func (dbp *nativeProcess) requestManualStop() error {
	return errcode.Translate(sys.Kill(dbp.pid, sys.SIGTRAP))
}

func (dbp *nativeProcess) hostDetach() error {
	// PTRACE_DETACH needs the tracee in a trace stop, so halt whatever is
	// still running first.
	for _, th := range dbp.threads {
		if th.state != proc.ThreadRunning {
			continue
		}
		if err := th.suspend(); err != nil {
			if err == sys.ESRCH {
				delete(dbp.threads, th.ID)
				continue
			}
			return errcode.Translate(err)
		}
	}
	for threadID := range dbp.threads {
		var err error
		dbp.execPtraceFunc(func() { err = ptraceDetach(threadID, 0) })
		if err != nil {
			return errcode.Translate(err)
		}
	}
	// For some reason the process will sometimes enter stopped state after a
	// detach, this doesn't happen immediately either.
	// We have to wait a bit here, then check if the main thread is stopped and
	// SIGCONT it if it is.
	time.Sleep(50 * time.Millisecond)
	if s := status(dbp.pid, dbp.os.comm); s == 'T' {
		_ = sys.Kill(dbp.pid, sys.SIGCONT)
	}
	return nil
}

// kill destroys the debuggee and reaps every task, so that no zombie is
// left behind when the kill event is later reported.
func (dbp *nativeProcess) kill() error {
	if err := sys.Kill(-dbp.pid, sys.SIGKILL); err != nil {
		return errcode.Translate(err)
	}
	// wait for other threads first or the thread group leader (dbp.pid)
	// will never exit.
	for threadID := range dbp.threads {
		if threadID != dbp.pid {
			dbp.wait(threadID, 0)
			delete(dbp.threads, threadID)
		}
	}
	for {
		wpid, status, err := dbp.wait(dbp.pid, 0)
		if err != nil {
			return errcode.Translate(err)
		}
		if wpid == dbp.pid && status != nil && status.Signaled() && status.Signal() == sys.SIGKILL {
			break
		}
		if wpid == dbp.pid && status == nil {
			// zombie, reaped by somebody else
			break
		}
	}
	if th := dbp.threads[dbp.pid]; th != nil {
		th.state = proc.ThreadTerminated
		dbp.currentThread = th
	}
	if dbp.pending.valid {
		dbp.pending.reset()
	}
	return nil
}

// fillHostInfo completes the process description with the credentials read
// from procfs.
func (dbp *nativeProcess) fillHostInfo(info *proc.ProcessInfo) error {
	buf, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", dbp.pid))
	if err != nil {
		return errcode.Translate(err)
	}
	uid, gid, err := parseProcStatusIDs(buf)
	if err != nil {
		return err
	}
	info.RealUID = uid
	info.RealGID = gid
	return nil
}

// parseProcStatusIDs extracts the real uid and gid from the contents of a
// /proc/pid/status file.
func parseProcStatusIDs(buf []byte) (uid, gid int, err error) {
	sc := bufio.NewScanner(bytes.NewReader(buf))
	seen := 0
	for sc.Scan() {
		line := sc.Text()
		var dst *int
		switch {
		case strings.HasPrefix(line, "Uid:"):
			dst = &uid
		case strings.HasPrefix(line, "Gid:"):
			dst = &gid
		default:
			continue
		}
		fields := strings.Fields(line[4:])
		if len(fields) == 0 {
			return 0, 0, fmt.Errorf("malformed status line: %q", line)
		}
		// first field is the real id
		v, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, err
		}
		*dst = v
		seen++
	}
	if seen < 2 {
		return 0, 0, errors.New("could not find Uid/Gid in process status")
	}
	return uid, gid, nil
}

func status(pid int, comm string) rune {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return '\000'
	}
	defer f.Close()
	rd := bufio.NewReader(f)

	var (
		p     int
		state rune
	)

	// The second field of /proc/pid/stat is the name of the task in parentheses.
	// Since both parenthesis and spaces can appear inside the name of the task
	// and no escaping happens we need to read the name of the executable first
	// See: include/linux/sched.c:315 and include/linux/sched.c:1510
	_, _ = fmt.Fscanf(rd, "%d ("+comm+")  %c", &p, &state)
	return state
}

// waitFast is like wait but does not handle process-exit correctly
func (dbp *nativeProcess) waitFast(pid int) (int, *sys.WaitStatus, error) {
	var s sys.WaitStatus
	wpid, err := sys.Wait4(pid, &s, sys.WALL, nil)
	return wpid, &s, err
}

func (dbp *nativeProcess) wait(pid, options int) (int, *sys.WaitStatus, error) {
	var s sys.WaitStatus
	if (pid != dbp.pid) || (options != 0) {
		wpid, err := sys.Wait4(pid, &s, sys.WALL|options, nil)
		return wpid, &s, err
	}
	// If we call wait4/waitpid on a thread that is the leader of its group,
	// with options == 0, while ptracing and the thread leader has exited leaving
	// zombies of its own then waitpid hangs forever this is apparently intended
	// behaviour in the linux kernel because it's just so convenient.
	// Therefore we call wait4 in a loop with WNOHANG, sleeping a while between
	// calls and exiting when either wait4 succeeds or we find out that the thread
	// has become a zombie.
	// References:
	// https://sourceware.org/bugzilla/show_bug.cgi?id=12702
	// https://sourceware.org/bugzilla/show_bug.cgi?id=10095
	// https://sourceware.org/bugzilla/attachment.cgi?id=5685
	for {
		wpid, err := sys.Wait4(pid, &s, sys.WNOHANG|sys.WALL|options, nil)
		if err != nil {
			return 0, nil, err
		}
		if wpid != 0 {
			return wpid, &s, err
		}
		if status(pid, dbp.os.comm) == statusZombie {
			return pid, nil, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}
