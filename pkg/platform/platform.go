// Package platform exposes the host constants the process layer reports to
// its callers: CPU type and subtype in the encoding remote debuggers expect,
// pointer size, byte order, and the OS identification pair. Everything here
// is selected at build time; there is no runtime host detection.
package platform

// CPUType identifies a processor family using the Mach-O style encoding
// understood by remote debugging clients.
type CPUType uint32

const (
	CPUTypeAny    CPUType = 0
	CPUTypeX86    CPUType = 0x00000007
	CPUTypeX86_64 CPUType = 0x01000007
	CPUTypeARM    CPUType = 0x0000000c
	CPUTypeARM64  CPUType = 0x0100000c
)

// CPUSubType refines a CPUType.
type CPUSubType uint32

const (
	CPUSubTypeInvalid   CPUSubType = 0
	CPUSubTypeX86All    CPUSubType = 3
	CPUSubTypeX86_64All CPUSubType = 3
	CPUSubTypeARM64All  CPUSubType = 0
)
