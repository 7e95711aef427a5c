//go:build linux || darwin

package spawn

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	isatty "github.com/mattn/go-isatty"
)

// Run starts the debuggee stopped under trace control. The caller must run
// it from the thread that will issue all subsequent trace requests.
func (s *Spawner) Run() error {
	if len(s.cmd) == 0 {
		return errcode.ErrInvalidArgument
	}

	process := exec.Command(s.cmd[0])
	process.Args = s.cmd
	process.Stdin = os.Stdin
	process.Stdout = os.Stdout
	process.Stderr = os.Stderr
	if s.env != nil {
		process.Env = s.env
	}
	if s.wd != "" {
		process.Dir = s.wd
	}

	foreground := s.foreground
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		// Start will fail if we try to send a process to foreground but
		// we are not attached to a terminal.
		foreground = false
	}
	process.SysProcAttr = &syscall.SysProcAttr{
		Ptrace:     true,
		Setpgid:    true,
		Foreground: foreground,
	}
	if foreground {
		signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)
	}

	switch {
	case s.tty != "":
		f, err := attachToTTY(process, s.tty)
		if err != nil {
			return err
		}
		s.ctty = f
	case s.usePTY:
		ptm, pts, err := pty.Open()
		if err != nil {
			return err
		}
		process.Stdin = pts
		process.Stdout = pts
		process.Stderr = pts
		process.SysProcAttr.Setpgid = false
		process.SysProcAttr.Foreground = false
		process.SysProcAttr.Setsid = true
		process.SysProcAttr.Setctty = true
		s.ptm = ptm
		s.ctty = pts
	}

	if err := process.Start(); err != nil {
		s.Close()
		return err
	}
	s.pid = process.Process.Pid
	s.log.Debugf("launched %q pid=%d", s.cmd[0], s.pid)
	return nil
}

func attachToTTY(process *exec.Cmd, tty string) (*os.File, error) {
	f, err := os.OpenFile(tty, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if !isatty.IsTerminal(f.Fd()) {
		f.Close()
		return nil, fmt.Errorf("%s is not a terminal", f.Name())
	}
	process.Stdin = f
	process.Stdout = f
	process.Stderr = f
	process.SysProcAttr.Setpgid = false
	process.SysProcAttr.Foreground = false
	process.SysProcAttr.Setsid = true
	process.SysProcAttr.Setctty = true
	return f, nil
}
