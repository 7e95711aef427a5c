//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package errcode

import (
	"errors"
	"fmt"
	"testing"

	sys "golang.org/x/sys/unix"
)

func TestTranslateErrno(t *testing.T) {
	for _, tc := range []struct {
		errno error
		want  error
	}{
		{sys.EPERM, ErrAccessDenied},
		{sys.EACCES, ErrAccessDenied},
		{sys.ESRCH, ErrProcessGone},
		{sys.ENOENT, ErrNotFound},
		{sys.EINVAL, ErrInvalidArgument},
		{sys.EEXIST, ErrAlreadyExists},
		{sys.ENOSYS, ErrUnsupported},
	} {
		if got := Translate(tc.errno); got != tc.want {
			t.Errorf("Translate(%v) = %v, want %v", tc.errno, got, tc.want)
		}
	}
}

func TestTranslateNil(t *testing.T) {
	if err := Translate(nil); err != nil {
		t.Errorf("Translate(nil) = %v, want nil", err)
	}
}

func TestTranslateWrapped(t *testing.T) {
	wrapped := fmt.Errorf("could not attach: %w", sys.EPERM)
	if got := Translate(wrapped); got != ErrAccessDenied {
		t.Errorf("Translate(wrapped EPERM) = %v, want ErrAccessDenied", got)
	}
}

func TestTranslateUnknown(t *testing.T) {
	got := Translate(sys.EIO)
	var unk *UnknownError
	if !errors.As(got, &unk) {
		t.Fatalf("Translate(EIO) = %T, want *UnknownError", got)
	}
	if !errors.Is(got, sys.EIO) {
		t.Errorf("translated unknown error does not unwrap to the original errno")
	}
}

func TestTranslateNonErrno(t *testing.T) {
	cause := errors.New("some host failure")
	got := Translate(cause)
	var unk *UnknownError
	if !errors.As(got, &unk) {
		t.Fatalf("Translate(non-errno) = %T, want *UnknownError", got)
	}
	if unk.Cause != cause {
		t.Errorf("UnknownError.Cause = %v, want %v", unk.Cause, cause)
	}
}
