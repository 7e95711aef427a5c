package errcode

import (
	"errors"
	"syscall"

	sys "golang.org/x/sys/windows"
)

// Translate converts an error returned by a Win32 call into the portable
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
	case sys.ERROR_ACCESS_DENIED:
		return ErrAccessDenied
	case sys.ERROR_INVALID_PARAMETER:
		return ErrInvalidArgument
	case sys.ERROR_FILE_NOT_FOUND, sys.ERROR_PATH_NOT_FOUND, sys.ERROR_MOD_NOT_FOUND, sys.ERROR_PROC_NOT_FOUND:
		return ErrNotFound
	case sys.ERROR_ALREADY_EXISTS:
		return ErrAlreadyExists
	case sys.ERROR_NOT_SUPPORTED:
		return ErrUnsupported
	case sys.ERROR_INVALID_HANDLE:
		return ErrProcessGone
	}
	return &UnknownError{Cause: errno}
}
