package proc

import (
	"bytes"
	"testing"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
)

type fakeMem struct {
	base uint64
	data []byte
}

func (m *fakeMem) ReadMemory(addr uint64, buf []byte) (int, error) {
	off := int(addr - m.base)
	if off < 0 || off >= len(m.data) {
		return 0, errcode.ErrInvalidArgument
	}
	n := copy(buf, m.data[off:])
	if n < len(buf) {
		return n, errcode.ErrInvalidArgument
	}
	return n, nil
}

func TestReadCStringStopsAtTerminator(t *testing.T) {
	mem := &fakeMem{base: 0x1000, data: []byte("hello\x00world")}
	s, err := ReadCString(mem, 0x1000, 64)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Errorf("ReadCString = %q, want %q", s, "hello")
	}
}

func TestReadCStringTruncatesAtBound(t *testing.T) {
	mem := &fakeMem{base: 0x1000, data: bytes.Repeat([]byte{'a'}, 32)}
	s, err := ReadCString(mem, 0x1000, 8)
	if err != nil {
		t.Fatal(err)
	}
	if s != "aaaaaaaa" {
		t.Errorf("ReadCString = %q, want 8 a's", s)
	}
}

func TestReadCStringPropagatesReadErrors(t *testing.T) {
	mem := &fakeMem{base: 0x1000, data: []byte("abc")}
	if _, err := ReadCString(mem, 0x2000, 4); err == nil {
		t.Error("expected an error reading unmapped memory")
	}
}

func TestNormalizeModulePath(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{`C:\Windows\System32\ntdll.dll`, "/Windows/System32/ntdll.dll"},
		{`c:\prog.exe`, "/prog.exe"},
		{"/usr/lib/libc.so.6", "/usr/lib/libc.so.6"},
		{`relative\path.dll`, "relative/path.dll"},
		{"", ""},
	} {
		if got := NormalizeModulePath(tc.in); got != tc.want {
			t.Errorf("NormalizeModulePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStopEventTerminal(t *testing.T) {
	if EventStop.Terminal() || EventNone.Terminal() {
		t.Error("stop/none must not be terminal")
	}
	if !EventExit.Terminal() || !EventKill.Terminal() {
		t.Error("exit/kill must be terminal")
	}
}
