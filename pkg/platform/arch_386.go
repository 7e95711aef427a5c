package platform

import "encoding/binary"

const (
	CurrentCPUType    = CPUTypeX86
	CurrentCPUSubType = CPUSubTypeX86All
	PointerSize       = 4
)

var ByteOrder = binary.LittleEndian
