package spawn

import "testing"

func TestNewOptions(t *testing.T) {
	s := New([]string{"/bin/true", "arg"},
		WithWorkingDir("/tmp"),
		WithTTY("/dev/tty7"),
		WithForeground(),
	)
	if len(s.cmd) != 2 || s.cmd[0] != "/bin/true" {
		t.Errorf("cmd = %v", s.cmd)
	}
	if s.wd != "/tmp" || s.tty != "/dev/tty7" || !s.foreground {
		t.Errorf("options not applied: %+v", s)
	}
	if s.Pid() != 0 {
		t.Errorf("pid before Run = %d", s.Pid())
	}
	if s.PTYMaster() != nil {
		t.Error("pty master without WithPTY")
	}
}

func TestCloseWithoutRun(t *testing.T) {
	s := New([]string{"/bin/true"})
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
