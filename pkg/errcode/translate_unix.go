//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package errcode

import (
	"errors"
	"syscall"

	sys "golang.org/x/sys/unix"
)

// Translate converts an error returned by a host syscall into the portable
// taxonomy. A nil error translates to nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return &UnknownError{Cause: err}
	}
	switch errno {
	case sys.EPERM, sys.EACCES:
		return ErrAccessDenied
	case sys.ESRCH:
		return ErrProcessGone
	case sys.ENOENT:
		return ErrNotFound
	case sys.EINVAL:
		return ErrInvalidArgument
	case sys.EEXIST:
		return ErrAlreadyExists
	case sys.ENOSYS, sys.EOPNOTSUPP:
		return ErrUnsupported
	}
	return &UnknownError{Cause: errno}
}
