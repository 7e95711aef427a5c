package native

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	sys "golang.org/x/sys/unix"

	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
)

// readMemory transfers memory out of the debuggee with a cross-vm read,
// falling back to the trace channel when the kernel denies it. A short
// transfer with a nonzero count is a success.
func (dbp *nativeProcess) readMemory(addr uint64, buf []byte) (int, error) {
	local := []sys.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []sys.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := sys.ProcessVMReadv(dbp.pid, local, remote, 0)
	if err == nil || n > 0 {
		return n, nil
	}
	if err != sys.ENOSYS && err != sys.EPERM {
		return 0, errcode.Translate(err)
	}
	var perr error
	dbp.execPtraceFunc(func() { n, perr = sys.PtracePeekData(dbp.pid, uintptr(addr), buf) })
	if perr != nil && n == 0 {
		return 0, errcode.Translate(perr)
	}
	return n, nil
}

func (dbp *nativeProcess) writeMemory(addr uint64, data []byte) (int, error) {
	local := []sys.Iovec{{Base: &data[0]}}
	local[0].SetLen(len(data))
	remote := []sys.RemoteIovec{{Base: uintptr(addr), Len: len(data)}}

	n, err := sys.ProcessVMWritev(dbp.pid, local, remote, 0)
	if err == nil || n > 0 {
		return n, nil
	}
	// process_vm_writev cannot write read-only mappings (it fails with
	// EFAULT where ptrace writes through), and may be missing or denied
	// outright; poke through the trace channel instead.
	var perr error
	dbp.execPtraceFunc(func() { n, perr = sys.PtracePokeData(dbp.pid, uintptr(addr), data) })
	if perr != nil && n == 0 {
		return 0, errcode.Translate(perr)
	}
	return n, nil
}

// mapsEntry is one mapping parsed out of /proc/pid/maps.
type mapsEntry struct {
	start  uint64
	end    uint64
	prot   proc.MemProt
	offset uint64
	path   string
}

// parseMapsLine parses a single line of a maps file, for example:
//
//	7f01e6ab1000-7f01e6ab3000 rw-p 001b2000 fd:01 267062 /usr/lib/libc.so.6
func parseMapsLine(line string) (mapsEntry, bool) {
	var e mapsEntry
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return e, false
	}
	lo, hi, ok := strings.Cut(fields[0], "-")
	if !ok {
		return e, false
	}
	var err error
	if e.start, err = strconv.ParseUint(lo, 16, 64); err != nil {
		return e, false
	}
	if e.end, err = strconv.ParseUint(hi, 16, 64); err != nil {
		return e, false
	}
	perms := fields[1]
	if len(perms) < 3 {
		return e, false
	}
	if perms[0] == 'r' {
		e.prot |= proc.ProtRead
	}
	if perms[1] == 'w' {
		e.prot |= proc.ProtWrite
	}
	if perms[2] == 'x' {
		e.prot |= proc.ProtExec
	}
	if e.offset, err = strconv.ParseUint(fields[2], 16, 64); err != nil {
		return e, false
	}
	if len(fields) >= 6 {
		// the path itself may contain spaces
		e.path = strings.Join(fields[5:], " ")
	}
	return e, true
}

func (dbp *nativeProcess) readMapsEntries() ([]mapsEntry, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", dbp.pid))
	if err != nil {
		return nil, errcode.Translate(err)
	}
	defer f.Close()

	var entries []mapsEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if e, ok := parseMapsLine(sc.Text()); ok {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errcode.Translate(err)
	}
	return entries, nil
}

// memoryRegionInfo returns the mapping containing addr. Results are cached
// until the debuggee runs again.
func (dbp *nativeProcess) memoryRegionInfo(addr uint64) (*proc.MemoryRegionInfo, error) {
	if region, ok := dbp.os.regionCache.Get(addr &^ 0xfff); ok {
		return region.(*proc.MemoryRegionInfo), nil
	}
	entries, err := dbp.readMapsEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if addr >= e.start && addr < e.end {
			region := &proc.MemoryRegionInfo{
				Start:      e.start,
				Length:     e.end - e.start,
				Protection: e.prot,
			}
			dbp.os.regionCache.Add(addr&^0xfff, region)
			return region, nil
		}
	}
	return nil, errcode.ErrNotFound
}

// enumerateSharedLibraries reports each file-backed module mapped into the
// debuggee, in address order. The first module is the executable itself and
// the sections of a module are the start addresses of its mappings.
func (dbp *nativeProcess) enumerateSharedLibraries(visit func(proc.SharedLibraryInfo)) error {
	entries, err := dbp.readMapsEntries()
	if err != nil {
		return err
	}
	var order []string
	sections := make(map[string][]uint64)
	for _, e := range entries {
		if !strings.HasPrefix(e.path, "/") {
			continue
		}
		if _, seen := sections[e.path]; !seen {
			order = append(order, e.path)
		}
		sections[e.path] = append(sections[e.path], e.start)
	}
	for i, path := range order {
		visit(proc.SharedLibraryInfo{
			Path:     proc.NormalizeModulePath(path),
			Main:     i == 0,
			Sections: sections[path],
		})
	}
	return nil
}
