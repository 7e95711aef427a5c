//go:build linux && !amd64

package native

import (
	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// Syscall injection is only implemented for amd64.

func (dbp *nativeProcess) allocateMemory(size int, prot proc.MemProt) (uint64, error) {
	return 0, errcode.ErrUnsupported
}

func (dbp *nativeProcess) deallocateMemory(addr uint64, size int) error {
	return errcode.ErrUnsupported
}
