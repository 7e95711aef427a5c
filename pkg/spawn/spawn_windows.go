package spawn

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
)

const _DEBUG_ONLY_THIS_PROCESS = 0x00000002

// Run starts the debuggee as a debug target of the calling thread. The
// caller must run it from the thread that will service the debug events.
func (s *Spawner) Run() error {
	if len(s.cmd) == 0 {
		return errcode.ErrInvalidArgument
	}
	argv0, err := filepath.Abs(s.cmd[0])
	if err != nil {
		return err
	}

	attr := &os.ProcAttr{
		Dir:   s.wd,
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
		Env:   s.env,
		Sys: &syscall.SysProcAttr{
			CreationFlags: _DEBUG_ONLY_THIS_PROCESS,
		},
	}
	p, err := os.StartProcess(argv0, s.cmd, attr)
	if err != nil {
		return err
	}
	defer p.Release()
	s.pid = p.Pid
	s.log.Debugf("launched %q pid=%d", argv0, s.pid)
	return nil
}
