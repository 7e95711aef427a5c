package native

import (
	"fmt"

	sys "golang.org/x/sys/unix"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// syscallInstr is the amd64 syscall instruction.
var syscallInstr = []byte{0x0f, 0x05}

// injectSyscall executes a syscall inside the debuggee by rewriting the
// stopped current thread: the bytes under its PC become a syscall
// instruction, the registers carry the syscall number and arguments, the
// thread steps once, and then everything is restored.
func (dbp *nativeProcess) injectSyscall(sysno uint64, args [6]uint64) (uint64, error) {
	th := dbp.currentThread
	if th == nil || th.state == proc.ThreadTerminated {
		return 0, errcode.ErrProcessGone
	}

	if err := th.saveRegisters(); err != nil {
		return 0, err
	}
	savedRegs := th.os.registers
	pc := savedRegs.Rip

	savedText := make([]byte, len(syscallInstr))
	if n, err := dbp.readMemory(pc, savedText); err != nil || n != len(savedText) {
		if err == nil {
			err = &errcode.UnknownError{Cause: fmt.Errorf("short read of %d bytes at %#x", n, pc)}
		}
		return 0, err
	}
	if n, err := dbp.writeMemory(pc, syscallInstr); err != nil || n != len(syscallInstr) {
		if err == nil {
			err = &errcode.UnknownError{Cause: fmt.Errorf("short write of %d bytes at %#x", n, pc)}
		}
		return 0, err
	}

	regs := savedRegs
	regs.Rax = sysno
	regs.Rdi = args[0]
	regs.Rsi = args[1]
	regs.Rdx = args[2]
	regs.R10 = args[3]
	regs.R8 = args[4]
	regs.R9 = args[5]
	regs.Rip = pc

	restore := func() error {
		if _, err := dbp.writeMemory(pc, savedText); err != nil {
			return err
		}
		th.os.registers = savedRegs
		return th.restoreRegisters()
	}

	var err error
	dbp.execPtraceFunc(func() { err = ptraceSetRegs(th.ID, &regs) })
	if err != nil {
		restore()
		return 0, errcode.Translate(err)
	}

	if err := dbp.stepOverInjected(th); err != nil {
		restore()
		return 0, err
	}

	var result sys.PtraceRegs
	dbp.execPtraceFunc(func() { err = ptraceGetRegs(th.ID, &result) })
	if err != nil {
		restore()
		return 0, errcode.Translate(err)
	}
	if err := restore(); err != nil {
		return 0, err
	}

	ret := result.Rax
	if errno := int64(ret); errno < 0 && errno > -4096 {
		return 0, errcode.Translate(sys.Errno(-errno))
	}
	return ret, nil
}

// stepOverInjected single steps th until the step trap arrives, swallowing
// unrelated signals so they do not disturb the injected call.
func (dbp *nativeProcess) stepOverInjected(th *nativeThread) error {
	sig := 0
	for {
		var err error
		dbp.execPtraceFunc(func() { err = ptraceSingleStep(th.ID, sig) })
		if err != nil {
			return errcode.Translate(err)
		}
		sig = 0
		_, status, err := dbp.waitFast(th.ID)
		if err != nil {
			return errcode.Translate(err)
		}
		if status == nil || status.Exited() || status.Signaled() {
			dbp.terminated = true
			return errcode.ErrProcessGone
		}
		if status.StopSignal() == sys.SIGTRAP {
			return nil
		}
		// redeliver whatever else stopped us along with the next step
		sig = int(status.StopSignal())
	}
}

func protToNative(prot proc.MemProt) uint64 {
	native := uint64(0) // PROT_NONE
	if prot&proc.ProtRead != 0 {
		native |= sys.PROT_READ
	}
	if prot&proc.ProtWrite != 0 {
		native |= sys.PROT_WRITE
	}
	if prot&proc.ProtExec != 0 {
		native |= sys.PROT_EXEC
	}
	return native
}

// allocateMemory maps an anonymous region inside the debuggee.
func (dbp *nativeProcess) allocateMemory(size int, prot proc.MemProt) (uint64, error) {
	addr, err := dbp.injectSyscall(sys.SYS_MMAP, [6]uint64{
		0,
		uint64(size),
		protToNative(prot),
		sys.MAP_PRIVATE | sys.MAP_ANONYMOUS,
		^uint64(0),
		0,
	})
	if err != nil {
		return 0, err
	}
	dbp.os.regionCache.Purge()
	return addr, nil
}

// deallocateMemory unmaps a region previously created by allocateMemory.
func (dbp *nativeProcess) deallocateMemory(addr uint64, size int) error {
	if size <= 0 {
		return errcode.ErrInvalidArgument
	}
	_, err := dbp.injectSyscall(sys.SYS_MUNMAP, [6]uint64{addr, uint64(size)})
	if err != nil {
		return err
	}
	dbp.os.regionCache.Purge()
	return nil
}

func ptraceGetRegs(tid int, regs *sys.PtraceRegs) error {
	return sys.PtraceGetRegs(tid, regs)
}

func ptraceSetRegs(tid int, regs *sys.PtraceRegs) error {
	return sys.PtraceSetRegs(tid, regs)
}

func (t *nativeThread) saveRegisters() error {
	var err error
	t.dbp.execPtraceFunc(func() { err = ptraceGetRegs(t.ID, &t.os.registers) })
	if err != nil {
		return fmt.Errorf("could not save register contents: %v", err)
	}
	return nil
}

func (t *nativeThread) restoreRegisters() (err error) {
	t.dbp.execPtraceFunc(func() { err = ptraceSetRegs(t.ID, &t.os.registers) })
	return
}
