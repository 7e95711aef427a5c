package platform

const (
	OSName   = "windows"
	OSVendor = "pc"
)
