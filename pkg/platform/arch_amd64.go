package platform

import "encoding/binary"

const (
	// CurrentCPUType is the CPU type of the host this binary was built for.
	CurrentCPUType = CPUTypeX86_64
	// CurrentCPUSubType refines CurrentCPUType.
	CurrentCPUSubType = CPUSubTypeX86_64All
	// PointerSize is the size in bytes of a pointer in the debuggee.
	PointerSize = 8
)

// ByteOrder is the byte order of the host.
var ByteOrder = binary.LittleEndian
