package proc

// MemoryReader is the subset of Process needed to read debuggee memory.
type MemoryReader interface {
	ReadMemory(addr uint64, buf []byte) (int, error)
}

// ReadCString reads a null-terminated string from mem one byte at a time,
// up to maxLen bytes. Reaching maxLen without finding a terminator is not an
// error; the string read so far is returned.
func ReadCString(mem MemoryReader, addr uint64, maxLen int) (string, error) {
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		var b [1]byte
		if _, err := mem.ReadMemory(addr+uint64(i), b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			break
		}
		buf = append(buf, b[0])
	}
	return string(buf), nil
}
