//go:build !linux && !windows

package stabilize

// Defaults returns no stabilizers; this platform has none.
func Defaults(_ System) []Stabilizer {
	return nil
}
