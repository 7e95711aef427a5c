package platform

const (
	OSName   = "macosx"
	OSVendor = "apple"
)
