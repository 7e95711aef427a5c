package native

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	sys "golang.org/x/sys/unix"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
	"github.com/go-dbgsrv/dbgsrv/pkg/spawn"
)

func TestClassifyStopSignal(t *testing.T) {
	th := &nativeThread{}
	for _, tc := range []struct {
		sig      sys.Signal
		stepping bool
		reason   proc.StopReason
	}{
		{sys.SIGTRAP, false, proc.ReasonBreakpoint},
		{sys.SIGTRAP, true, proc.ReasonTrace},
		{sys.SIGSEGV, false, proc.ReasonMemoryError},
		{sys.SIGBUS, false, proc.ReasonMemoryError},
		{sys.SIGFPE, false, proc.ReasonMathError},
		{sys.SIGILL, false, proc.ReasonInstructionError},
		{sys.SIGUSR1, false, proc.ReasonSignal},
	} {
		th.stepping = tc.stepping
		si := classifyStopSignal(th, tc.sig)
		if si.Event != proc.EventStop {
			t.Errorf("signal %d: event = %s, want stop", tc.sig, si.Event)
		}
		if si.Reason != tc.reason {
			t.Errorf("signal %d (stepping=%v): reason = %s, want %s", tc.sig, tc.stepping, si.Reason, tc.reason)
		}
		if tc.reason == proc.ReasonSignal && si.Signal != int(tc.sig) {
			t.Errorf("signal %d: Signal field = %d", tc.sig, si.Signal)
		}
	}
}

func TestParseMapsLine(t *testing.T) {
	e, ok := parseMapsLine("7f01e6ab1000-7f01e6ab3000 rw-p 001b2000 fd:01 267062                     /usr/lib/libc.so.6")
	if !ok {
		t.Fatal("parse failed")
	}
	if e.start != 0x7f01e6ab1000 || e.end != 0x7f01e6ab3000 {
		t.Errorf("bounds = %#x-%#x", e.start, e.end)
	}
	if e.prot != proc.ProtRead|proc.ProtWrite {
		t.Errorf("prot = %v", e.prot)
	}
	if e.offset != 0x1b2000 {
		t.Errorf("offset = %#x", e.offset)
	}
	if e.path != "/usr/lib/libc.so.6" {
		t.Errorf("path = %q", e.path)
	}

	e, ok = parseMapsLine("ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0                  [vsyscall]")
	if !ok {
		t.Fatal("parse failed")
	}
	if e.prot != proc.ProtExec {
		t.Errorf("prot = %v", e.prot)
	}
	if e.path != "[vsyscall]" {
		t.Errorf("path = %q", e.path)
	}

	if _, ok := parseMapsLine("garbage"); ok {
		t.Error("parsed garbage line")
	}
}

func TestParseMapsLinePathWithSpaces(t *testing.T) {
	e, ok := parseMapsLine("00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/dir with spaces/prog")
	if !ok {
		t.Fatal("parse failed")
	}
	if e.path != "/usr/bin/dir with spaces/prog" {
		t.Errorf("path = %q", e.path)
	}
}

func TestParseProcStatusIDs(t *testing.T) {
	buf := []byte("Name:\tcat\nUid:\t1000\t1000\t1000\t1000\nGid:\t100\t100\t100\t100\nGroups:\t100\n")
	uid, gid, err := parseProcStatusIDs(buf)
	if err != nil {
		t.Fatal(err)
	}
	if uid != 1000 || gid != 100 {
		t.Errorf("uid=%d gid=%d", uid, gid)
	}

	if _, _, err := parseProcStatusIDs([]byte("Name: x\n")); err == nil {
		t.Error("expected error for missing Uid/Gid")
	}
}

// launchTestTarget launches a sleeping child under control of the test.
func launchTestTarget(t *testing.T) proc.Process {
	t.Helper()
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("no sleep binary found")
	}
	p, err := Create(spawn.New([]string{sleep, "60"}))
	if err != nil {
		t.Fatalf("could not launch %s: %v", sleep, err)
	}
	return p
}

func TestLaunchFirstStop(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	th := p.CurrentThread()
	if th == nil {
		t.Fatal("no current thread after launch")
	}
	si := th.StopInfo()
	if si.Event != proc.EventStop || si.Reason != proc.ReasonBreakpoint {
		t.Errorf("first stop = %s/%s, want stop/breakpoint", si.Event, si.Reason)
	}
	if th.State() != proc.ThreadStopped {
		t.Errorf("thread state = %v, want stopped", th.State())
	}
	if len(p.ThreadList()) == 0 {
		t.Error("no threads registered")
	}
	if _, ok := p.FindThread(th.ThreadID()); !ok {
		t.Error("current thread not found through FindThread")
	}
}

func TestUpdateInfo(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	if err := p.UpdateInfo(); err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	info := p.Info()
	if info.PID != p.Pid() {
		t.Errorf("info.PID = %d, want %d", info.PID, p.Pid())
	}
	if info.RealUID != os.Getuid() {
		t.Errorf("info.RealUID = %d, want %d", info.RealUID, os.Getuid())
	}
	if info.OSType != "linux" {
		t.Errorf("info.OSType = %q", info.OSType)
	}
	if info.PointerSize == 0 || info.CPUType == 0 {
		t.Errorf("incomplete info: %+v", info)
	}

	// a second update for the same process identity is refused
	if err := p.UpdateInfo(); !errors.Is(err, errcode.ErrAlreadyExists) {
		t.Errorf("second UpdateInfo = %v, want ErrAlreadyExists", err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	addr, err := p.AllocateMemory(4096, proc.ProtRead|proc.ProtWrite)
	if err != nil {
		if errors.Is(err, errcode.ErrUnsupported) {
			t.Skip("memory allocation not supported on this architecture")
		}
		t.Fatalf("AllocateMemory: %v", err)
	}
	if addr == 0 {
		t.Fatal("allocation at address 0")
	}

	pattern := make([]byte, 4096)
	for i := range pattern {
		pattern[i] = 0xaa
	}
	n, err := p.WriteMemory(addr, pattern)
	if err != nil || n != len(pattern) {
		t.Fatalf("WriteMemory = %d, %v", n, err)
	}
	got := make([]byte, 4096)
	n, err = p.ReadMemory(addr, got)
	if err != nil || n != len(got) {
		t.Fatalf("ReadMemory = %d, %v", n, err)
	}
	for i := range got {
		if got[i] != 0xaa {
			t.Fatalf("byte %d = %#x, want 0xaa", i, got[i])
		}
	}

	region, err := p.MemoryRegionInfo(addr)
	if err != nil {
		t.Fatalf("MemoryRegionInfo: %v", err)
	}
	if addr < region.Start || addr >= region.Start+region.Length {
		t.Errorf("region %#x+%#x does not contain %#x", region.Start, region.Length, addr)
	}
	if region.Protection != proc.ProtRead|proc.ProtWrite {
		t.Errorf("region protection = %v", region.Protection)
	}

	if err := p.DeallocateMemory(addr, 4096); err != nil {
		t.Fatalf("DeallocateMemory: %v", err)
	}
	if _, err := p.MemoryRegionInfo(addr); !errors.Is(err, errcode.ErrNotFound) {
		t.Errorf("region lookup after deallocate = %v, want ErrNotFound", err)
	}
}

func TestReadStringTruncation(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	addr, err := p.AllocateMemory(4096, proc.ProtRead|proc.ProtWrite)
	if err != nil {
		if errors.Is(err, errcode.ErrUnsupported) {
			t.Skip("memory allocation not supported on this architecture")
		}
		t.Fatalf("AllocateMemory: %v", err)
	}
	defer p.DeallocateMemory(addr, 4096)

	if _, err := p.WriteMemory(addr, []byte("hello world\x00")); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	s, err := p.ReadString(addr, 64)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if s != "hello world" {
		t.Errorf("ReadString = %q", s)
	}

	// truncation at the bound is a success, not an error
	s, err = p.ReadString(addr, 5)
	if err != nil {
		t.Fatalf("bounded ReadString: %v", err)
	}
	if s != "hello" {
		t.Errorf("bounded ReadString = %q", s)
	}
}

func TestWriteMemoryExecutableMapping(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	// process_vm_writev refuses read-only pages; the ptrace fallback must
	// write through them.
	entries, err := p.(*nativeProcess).readMapsEntries()
	if err != nil {
		t.Fatalf("readMapsEntries: %v", err)
	}
	var addr uint64
	for _, e := range entries {
		if e.prot&proc.ProtExec != 0 && e.prot&proc.ProtWrite == 0 {
			addr = e.start
			break
		}
	}
	if addr == 0 {
		t.Skip("no read-only executable mapping found")
	}

	orig := make([]byte, 2)
	if n, err := p.ReadMemory(addr, orig); err != nil || n != len(orig) {
		t.Fatalf("ReadMemory = %d, %v", n, err)
	}
	n, err := p.WriteMemory(addr, orig)
	if err != nil || n != len(orig) {
		t.Fatalf("WriteMemory into r-x mapping = %d, %v", n, err)
	}
}

func TestAddThreadGoneNoRawErrno(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	_, err := p.(*nativeProcess).addThread(1<<30, true)
	if err == nil {
		t.Fatal("expected an error attaching to a nonexistent thread")
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		t.Errorf("raw errno %v crossed the process boundary", errno)
	}
	if !errors.Is(err, errcode.ErrProcessGone) {
		t.Errorf("addThread error = %v, want ErrProcessGone", err)
	}
}

func TestDetachWhileRunning(t *testing.T) {
	p := launchTestTarget(t)

	if err := p.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := p.Detach(); err != nil {
		t.Fatalf("Detach with running threads: %v", err)
	}
	if p.IsAlive() {
		t.Error("IsAlive after Detach")
	}

	// the debuggee keeps running on its own; reap it
	pid := p.Pid()
	_ = sys.Kill(pid, sys.SIGKILL)
	_, _ = sys.Wait4(pid, nil, 0, nil)
}

func TestEnumerateSharedLibraries(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	var libs []proc.SharedLibraryInfo
	if err := p.EnumerateSharedLibraries(func(lib proc.SharedLibraryInfo) {
		libs = append(libs, lib)
	}); err != nil {
		t.Fatalf("EnumerateSharedLibraries: %v", err)
	}
	if len(libs) == 0 {
		t.Fatal("no modules reported")
	}
	if !libs[0].Main {
		t.Error("first module not marked as main")
	}
	for i, lib := range libs {
		if i > 0 && lib.Main {
			t.Errorf("module %d marked as main", i)
		}
		if !strings.HasPrefix(lib.Path, "/") || strings.Contains(lib.Path, "\\") {
			t.Errorf("module path %q not normalized", lib.Path)
		}
		if len(lib.Sections) == 0 {
			t.Errorf("module %q has no sections", lib.Path)
		}
	}
}

func TestTerminateSynthesizesKill(t *testing.T) {
	p := launchTestTarget(t)

	if err := p.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if p.IsAlive() {
		t.Error("IsAlive after Terminate")
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait after Terminate: %v", err)
	}
	si := p.CurrentThread().StopInfo()
	if si.Event != proc.EventKill {
		t.Errorf("event after Terminate = %s, want kill", si.Event)
	}
	if err := p.Resume(); !errors.Is(err, errcode.ErrProcessGone) {
		t.Errorf("Resume after Terminate = %v, want ErrProcessGone", err)
	}
	if !p.(*nativeProcess).released {
		t.Error("native resources not released after Terminate")
	}
}

func TestNaturalExit(t *testing.T) {
	tru, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary found")
	}
	p, err := Create(spawn.New([]string{tru}))
	if err != nil {
		t.Fatalf("could not launch %s: %v", tru, err)
	}

	var si proc.StopInfo
	for {
		if err := p.Resume(); err != nil {
			t.Fatalf("Resume: %v", err)
		}
		if err := p.Wait(); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		si = p.CurrentThread().StopInfo()
		if si.Event.Terminal() {
			break
		}
	}
	if si.Event != proc.EventExit || si.ExitStatus != 0 {
		t.Errorf("final event = %s status=%d, want exit/0", si.Event, si.ExitStatus)
	}
	if len(p.ThreadList()) != 1 {
		t.Errorf("%d threads registered at exit, want 1", len(p.ThreadList()))
	}
	if err := p.Resume(); !errors.Is(err, errcode.ErrProcessGone) {
		t.Errorf("Resume after exit = %v, want ErrProcessGone", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait after exit: %v", err)
	}
	if got := p.CurrentThread().StopInfo().Event; got != proc.EventKill {
		t.Errorf("synthesized event = %s, want kill", got)
	}
	if !p.(*nativeProcess).released {
		t.Error("native resources not released after exit")
	}
}

func TestNoGoroutineLeakAfterExit(t *testing.T) {
	tru, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary found")
	}
	before := runtime.NumGoroutine()
	const sessions = 5
	for i := 0; i < sessions; i++ {
		p, err := Create(spawn.New([]string{tru}))
		if err != nil {
			t.Fatalf("could not launch %s: %v", tru, err)
		}
		for {
			if err := p.Resume(); err != nil {
				t.Fatalf("Resume: %v", err)
			}
			if err := p.Wait(); err != nil {
				t.Fatalf("Wait: %v", err)
			}
			if p.CurrentThread().StopInfo().Event.Terminal() {
				break
			}
		}
	}
	// the trace goroutines drain asynchronously once their channel closes
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("%d goroutines before, %d after %d exited sessions", before, runtime.NumGoroutine(), sessions)
}

func TestInterrupt(t *testing.T) {
	p := launchTestTarget(t)
	defer p.Terminate()

	if err := p.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	waitDone := make(chan error, 1)
	go func() { waitDone <- p.Wait() }()
	time.Sleep(50 * time.Millisecond)
	if err := p.Interrupt(); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	select {
	case err := <-waitDone:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Interrupt")
	}
	si := p.CurrentThread().StopInfo()
	if si.Event != proc.EventStop || si.Reason != proc.ReasonBreakpoint {
		t.Errorf("interrupt stop = %s/%s, want stop/breakpoint", si.Event, si.Reason)
	}
}

func TestAttachDetach(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("no sleep binary found")
	}
	cmd := exec.Command(sleep, "60")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	p, err := Attach(cmd.Process.Pid)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if p.Pid() != cmd.Process.Pid {
		t.Errorf("Pid = %d, want %d", p.Pid(), cmd.Process.Pid)
	}
	if err := p.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if p.IsAlive() {
		t.Error("IsAlive after Detach")
	}
	if err := p.Resume(); !errors.Is(err, errcode.ErrProcessGone) {
		t.Errorf("Resume after Detach = %v, want ErrProcessGone", err)
	}
}

func TestAttachInvalidPid(t *testing.T) {
	if _, err := Attach(-1); !errors.Is(err, errcode.ErrInvalidArgument) {
		t.Errorf("Attach(-1) = %v, want ErrInvalidArgument", err)
	}
}

func TestMain(m *testing.M) {
	os.Exit(testMainRun(m))
}

func testMainRun(m *testing.M) int {
	if os.Getuid() != 0 {
		// ptrace of children works for unprivileged users unless yama
		// forbids it entirely; tests will skip on their own failures.
		if b, err := os.ReadFile("/proc/sys/kernel/yama/ptrace_scope"); err == nil {
			if s := strings.TrimSpace(string(b)); s == "3" {
				fmt.Println("ptrace disabled by yama, skipping")
				return 0
			}
		}
	}
	return m.Run()
}
