package proc

// NormalizeModulePath converts a module path reported by the host into the
// canonical slash-separated form sent to the debugger. Remote clients
// mishandle paths when host and remote disagree on the separator, so drive
// letter prefixes are dropped and backslashes become forward slashes.
func NormalizeModulePath(path string) string {
	if len(path) >= 2 && path[1] == ':' &&
		((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		path = path[2:]
	}
	out := []byte(path)
	for i := range out {
		if out[i] == '\\' {
			out[i] = '/'
		}
	}
	return string(out)
}
