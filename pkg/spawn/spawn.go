// Package spawn provides the default spawner used to launch debuggees. It
// starts the process in a way that hands control to the debugger before the
// first instruction of user code runs.
package spawn

import (
	"os"

	"github.com/go-dbgsrv/dbgsrv/pkg/logflags"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
	"github.com/sirupsen/logrus"
)

// Spawner launches one process. It implements proc.Spawner.
type Spawner struct {
	cmd        []string
	wd         string
	env        []string
	tty        string
	usePTY     bool
	foreground bool

	pid  int
	ctty *os.File
	ptm  *os.File

	log *logrus.Entry
}

var _ proc.Spawner = (*Spawner)(nil)

// Option configures a Spawner.
type Option func(*Spawner)

// WithWorkingDir sets the working directory of the debuggee.
func WithWorkingDir(wd string) Option {
	return func(s *Spawner) { s.wd = wd }
}

// WithEnv sets the environment of the debuggee. A nil env inherits ours.
func WithEnv(env []string) Option {
	return func(s *Spawner) { s.env = env }
}

// WithTTY attaches the debuggee to an existing terminal device.
func WithTTY(tty string) Option {
	return func(s *Spawner) { s.tty = tty }
}

// WithPTY allocates a fresh pseudo terminal pair for the debuggee. The
// master side is available through PTYMaster after Run.
func WithPTY() Option {
	return func(s *Spawner) { s.usePTY = true }
}

// WithForeground puts the debuggee in the foreground of the controlling
// terminal. Ignored when stdin is not a terminal.
func WithForeground() Option {
	return func(s *Spawner) { s.foreground = true }
}

// New returns a Spawner for cmd; the first element is the program, the rest
// its arguments.
func New(cmd []string, opts ...Option) *Spawner {
	s := &Spawner{
		cmd: cmd,
		log: logflags.SpawnLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pid returns the process ID of the launched debuggee.
func (s *Spawner) Pid() int {
	return s.pid
}

// PTYMaster returns the master side of the terminal pair created by
// WithPTY, or nil.
func (s *Spawner) PTYMaster() *os.File {
	return s.ptm
}

// Close releases the terminal files held for the debuggee.
func (s *Spawner) Close() error {
	var err error
	if s.ctty != nil {
		err = s.ctty.Close()
		s.ctty = nil
	}
	if s.ptm != nil {
		if cerr := s.ptm.Close(); err == nil {
			err = cerr
		}
		s.ptm = nil
	}
	return err
}
