//go:build darwin && !macnative

package native

import (
	"errors"

	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// ErrNativeBackendDisabled is returned when the darwin native backend was
// not compiled in.
var ErrNativeBackendDisabled = errors.New("native backend disabled during compilation")

// osSpecificDetails holds information specific to the OSX/Darwin
// operating system / kernel.
type osSpecificDetails struct{}

// osProcessDetails holds Darwin specific information.
type osProcessDetails struct{}

func (os *osProcessDetails) Close() {}

func hostAttach(pid int) error {
	return ErrNativeBackendDisabled
}

func (dbp *nativeProcess) waitInitialStop() error {
	return ErrNativeBackendDisabled
}

func (dbp *nativeProcess) waitForDebugEvent() error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) resume() error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) resolvePendingEvent() error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) requestManualStop() error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) hostDetach() error {
	return nil
}

func (dbp *nativeProcess) kill() error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) fillHostInfo(info *proc.ProcessInfo) error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) readMemory(addr uint64, buf []byte) (int, error) {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) writeMemory(addr uint64, data []byte) (int, error) {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) allocateMemory(size int, prot proc.MemProt) (uint64, error) {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) deallocateMemory(addr uint64, size int) error {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) memoryRegionInfo(addr uint64) (*proc.MemoryRegionInfo, error) {
	panic(ErrNativeBackendDisabled)
}

func (dbp *nativeProcess) enumerateSharedLibraries(visit func(proc.SharedLibraryInfo)) error {
	panic(ErrNativeBackendDisabled)
}

func (t *nativeThread) suspend() error {
	panic(ErrNativeBackendDisabled)
}

func (t *nativeThread) resume() error {
	panic(ErrNativeBackendDisabled)
}

func (t *nativeThread) step() error {
	panic(ErrNativeBackendDisabled)
}
