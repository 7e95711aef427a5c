package platform

import "encoding/binary"

const (
	CurrentCPUType    = CPUTypeARM64
	CurrentCPUSubType = CPUSubTypeARM64All
	PointerSize       = 8
)

var ByteOrder = binary.LittleEndian
