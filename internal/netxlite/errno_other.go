//go:build !unix && !windows

package netxlite

// classifySyscallError always returns an empty string on systems
// for which we do not map errno values.
func classifySyscallError(err error) string {
	return ""
}
