package platform

const (
	// OSName is the OS type name reported in process info.
	OSName = "linux"
	// OSVendor is the OS vendor name reported in process info.
	OSVendor = "unknown"
)
