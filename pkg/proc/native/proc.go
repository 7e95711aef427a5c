// Package native implements the process control contract on top of the
// host operating system's debugging primitives. Exactly one host backend is
// compiled into a given binary, selected by build tags.
package native

import (
	"fmt"
	"runtime"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/logflags"
	"github.com/go-dbgsrv/dbgsrv/pkg/platform"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
	"github.com/sirupsen/logrus"
)

type processFlags uint32

const (
	flagNewProcess processFlags = 1 << iota
	flagAttachedProcess
)

// pendingEvent records the single unacknowledged stop of a process: a native
// event that has been observed but not yet resolved by resuming its thread.
// set and reset are the only transitions; calling either out of order is a
// bookkeeping bug, not a recoverable error.
type pendingEvent struct {
	valid bool
	tid   int
}

func (pe *pendingEvent) set(tid int) {
	if pe.valid {
		panic(fmt.Sprintf("pending event for thread %d set while event for thread %d is still pending", tid, pe.tid))
	}
	pe.valid = true
	pe.tid = tid
}

func (pe *pendingEvent) reset() {
	if !pe.valid {
		panic("pending event reset but no event is pending")
	}
	pe.valid = false
	pe.tid = 0
}

// nativeProcess holds everything the core tracks about one debuggee.
type nativeProcess struct {
	pid   int
	flags processFlags

	// threads maps thread id to the thread owned by this process.
	threads map[int]*nativeThread

	// currentThread is the thread that produced the most recent stop
	// event. The process never owns it through this field.
	currentThread *nativeThread

	pending pendingEvent

	info      proc.ProcessInfo
	infoValid bool

	terminated bool
	detached   bool
	released   bool

	os *osProcessDetails

	ptraceChan     chan func()
	ptraceDoneChan chan interface{}

	log      *logrus.Entry
	eventLog *logrus.Entry
}

var _ proc.Process = (*nativeProcess)(nil)

// newProcess returns an initialized nativeProcess. Before returning it also
// launches the goroutine that services native trace calls, since the host
// expects all of them to come from the thread that attached.
func newProcess(pid int, flags processFlags) *nativeProcess {
	dbp := &nativeProcess{
		pid:            pid,
		flags:          flags,
		threads:        make(map[int]*nativeThread),
		os:             new(osProcessDetails),
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan interface{}),
		log:            logflags.InferiorLogger(),
		eventLog:       logflags.EventsLogger(),
	}
	go dbp.handlePtraceFuncs()
	return dbp
}

func (dbp *nativeProcess) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread while
	// invoking the native trace calls. The host expects all commands after
	// the attach to come from the same thread.
	runtime.LockOSThread()

	for fn := range dbp.ptraceChan {
		fn()
		dbp.ptraceDoneChan <- nil
	}
}

func (dbp *nativeProcess) execPtraceFunc(fn func()) {
	dbp.ptraceChan <- fn
	<-dbp.ptraceDoneChan
}

// release frees the process's native resources exactly once: the trace
// goroutine and any host handles. Safe to call on every exit path.
func (dbp *nativeProcess) release() {
	if dbp.released {
		return
	}
	dbp.released = true
	close(dbp.ptraceChan)
	close(dbp.ptraceDoneChan)
	dbp.os.Close()
}

// postTerminate runs once a terminal event has been harvested or forced: it
// marks the process terminated and frees the native resources. The
// synthesized kill event in Wait only needs the cached current thread, which
// survives release.
func (dbp *nativeProcess) postTerminate() {
	dbp.terminated = true
	dbp.release()
}

// Create launches a new debuggee through the spawner and takes control of
// it, driving it to its first well-defined stop. On failure the partially
// constructed process is discarded and never escapes.
func Create(spawner proc.Spawner) (proc.Process, error) {
	dbp := newProcess(0, flagNewProcess)

	var err error
	// The spawner must run on the trace thread: the host ties the debug
	// connection to the thread that created it.
	dbp.execPtraceFunc(func() { err = spawner.Run() })
	if err != nil {
		dbp.release()
		return nil, err
	}
	dbp.pid = spawner.Pid()
	dbp.log.Debugf("created process %d", dbp.pid)

	if err := dbp.initialize(); err != nil {
		dbp.destroyPartial()
		return nil, err
	}
	return dbp, nil
}

// Attach takes control of an already running process.
func Attach(pid int) (proc.Process, error) {
	if pid <= 0 {
		return nil, errcode.ErrInvalidArgument
	}
	dbp := newProcess(pid, flagAttachedProcess)

	var err error
	dbp.execPtraceFunc(func() { err = hostAttach(pid) })
	if err != nil {
		dbp.release()
		return nil, errcode.Translate(err)
	}
	dbp.log.Debugf("attached to process %d", pid)

	if err := dbp.initialize(); err != nil {
		dbp.destroyPartial()
		return nil, err
	}
	return dbp, nil
}

// initialize drives a freshly created or attached process to the first
// breakpoint-class stop. Hosts differ in how many intermediate stops occur
// before the debuggee reaches user code, hence the loop.
func (dbp *nativeProcess) initialize() error {
	if err := dbp.waitInitialStop(); err != nil {
		return err
	}
	for {
		si := dbp.currentThread.stopInfo
		if si.Event == proc.EventStop && si.Reason == proc.ReasonBreakpoint {
			return nil
		}
		if si.Event.Terminal() {
			return errcode.ErrProcessGone
		}
		if err := dbp.Resume(); err != nil {
			return err
		}
		if err := dbp.Wait(); err != nil {
			return err
		}
	}
}

// destroyPartial tears down an instance whose initialization failed.
func (dbp *nativeProcess) destroyPartial() {
	if !dbp.terminated && !dbp.detached {
		_ = dbp.hostDetach()
	}
	dbp.release()
}

// Pid returns the process ID.
func (dbp *nativeProcess) Pid() int {
	return dbp.pid
}

// IsAlive returns whether the debuggee can still execute.
func (dbp *nativeProcess) IsAlive() bool {
	return !dbp.terminated && !dbp.detached
}

// Wait blocks until the next stop event of interest. If the process has
// already terminated it synthesizes a kill event for the cached current
// thread instead of blocking on a native event source that will never fire.
func (dbp *nativeProcess) Wait() error {
	if dbp.detached {
		return errcode.ErrProcessGone
	}
	if dbp.terminated {
		if dbp.currentThread == nil {
			panic("process terminated with no current thread")
		}
		dbp.currentThread.stopInfo = proc.StopInfo{Event: proc.EventKill}
		dbp.currentThread.state = proc.ThreadTerminated
		return nil
	}
	return dbp.waitForDebugEvent()
}

// Resume resolves the pending stop and requests continued execution of
// every thread.
func (dbp *nativeProcess) Resume() error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	return dbp.resume()
}

// StepThread resumes one thread for exactly one instruction. All other
// threads remain held; the resulting stop arrives through Wait.
func (dbp *nativeProcess) StepThread(tid int) error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	th, ok := dbp.threads[tid]
	if !ok {
		return errcode.ErrNotFound
	}
	if th.state == proc.ThreadTerminated {
		return errcode.ErrProcessGone
	}
	return th.step()
}

// Interrupt asynchronously requests a stop. The stop itself is observed
// through a subsequent Wait.
func (dbp *nativeProcess) Interrupt() error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	return dbp.requestManualStop()
}

// Detach releases the debuggee, leaving it running.
func (dbp *nativeProcess) Detach() error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	if err := dbp.hostDetach(); err != nil {
		return err
	}
	dbp.detached = true
	dbp.flags &^= flagAttachedProcess
	dbp.release()
	return nil
}

// Terminate requests destruction of the debuggee. The next Wait reports a
// kill event.
func (dbp *nativeProcess) Terminate() error {
	if dbp.terminated {
		return nil
	}
	if dbp.detached {
		return errcode.ErrProcessGone
	}
	if err := dbp.kill(); err != nil {
		return err
	}
	dbp.postTerminate()
	return nil
}

// CurrentThread returns the thread that produced the most recent stop.
func (dbp *nativeProcess) CurrentThread() proc.Thread {
	if dbp.currentThread == nil {
		return nil
	}
	return dbp.currentThread
}

// ThreadList returns the threads currently registered for the process.
func (dbp *nativeProcess) ThreadList() []proc.Thread {
	r := make([]proc.Thread, 0, len(dbp.threads))
	for _, v := range dbp.threads {
		r = append(r, v)
	}
	return r
}

// FindThread attempts to find the thread with the specified ID.
func (dbp *nativeProcess) FindThread(tid int) (proc.Thread, bool) {
	th, ok := dbp.threads[tid]
	if !ok {
		return nil, false
	}
	return th, true
}

// ReadMemory reads len(buf) bytes at addr, reporting the number of bytes
// actually transferred. Partial transfers with a nonzero count succeed.
func (dbp *nativeProcess) ReadMemory(addr uint64, buf []byte) (int, error) {
	if dbp.terminated || dbp.detached {
		return 0, errcode.ErrProcessGone
	}
	if len(buf) == 0 {
		return 0, nil
	}
	return dbp.readMemory(addr, buf)
}

// WriteMemory writes data at addr, reporting the number of bytes actually
// transferred.
func (dbp *nativeProcess) WriteMemory(addr uint64, data []byte) (int, error) {
	if dbp.terminated || dbp.detached {
		return 0, errcode.ErrProcessGone
	}
	if len(data) == 0 {
		return 0, nil
	}
	return dbp.writeMemory(addr, data)
}

// ReadString reads a null-terminated string of at most maxLen bytes.
// Truncation at maxLen is not an error.
func (dbp *nativeProcess) ReadString(addr uint64, maxLen int) (string, error) {
	if dbp.terminated || dbp.detached {
		return "", errcode.ErrProcessGone
	}
	return proc.ReadCString(dbp, addr, maxLen)
}

// AllocateMemory maps size bytes in the debuggee with the given protection
// and returns the address of the mapping.
func (dbp *nativeProcess) AllocateMemory(size int, prot proc.MemProt) (uint64, error) {
	if dbp.terminated || dbp.detached {
		return 0, errcode.ErrProcessGone
	}
	if size <= 0 {
		return 0, errcode.ErrInvalidArgument
	}
	return dbp.allocateMemory(size, prot)
}

// DeallocateMemory unmaps a region previously returned by AllocateMemory.
func (dbp *nativeProcess) DeallocateMemory(addr uint64, size int) error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	return dbp.deallocateMemory(addr, size)
}

// MemoryRegionInfo describes the mapping containing addr.
func (dbp *nativeProcess) MemoryRegionInfo(addr uint64) (*proc.MemoryRegionInfo, error) {
	if dbp.terminated || dbp.detached {
		return nil, errcode.ErrProcessGone
	}
	return dbp.memoryRegionInfo(addr)
}

// UpdateInfo computes the cached process attributes. It reports
// errcode.ErrAlreadyExists if they were already computed for the current
// process identity.
func (dbp *nativeProcess) UpdateInfo() error {
	if dbp.infoValid && dbp.info.PID == dbp.pid {
		return errcode.ErrAlreadyExists
	}
	info := proc.ProcessInfo{
		PID:         dbp.pid,
		CPUType:     platform.CurrentCPUType,
		CPUSubType:  platform.CurrentCPUSubType,
		Endian:      platform.ByteOrder,
		PointerSize: platform.PointerSize,
		OSType:      platform.OSName,
		OSVendor:    platform.OSVendor,
	}
	// The native pair mirrors the portable one until an object format
	// that reports a different encoding needs otherwise.
	info.NativeCPUType = info.CPUType
	info.NativeCPUSubType = info.CPUSubType
	info.ArchFlags = 0

	if err := dbp.fillHostInfo(&info); err != nil {
		return err
	}
	dbp.info = info
	dbp.infoValid = true
	return nil
}

// Info returns the cached process attributes.
func (dbp *nativeProcess) Info() proc.ProcessInfo {
	return dbp.info
}

// EnumerateSharedLibraries calls visit once per module mapped into the
// debuggee.
func (dbp *nativeProcess) EnumerateSharedLibraries(visit func(proc.SharedLibraryInfo)) error {
	if dbp.terminated || dbp.detached {
		return errcode.ErrProcessGone
	}
	return dbp.enumerateSharedLibraries(visit)
}
