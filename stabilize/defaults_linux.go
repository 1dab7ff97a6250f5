//go:build linux

package stabilize

// Defaults returns the stabilizers for this platform in acquisition order.
func Defaults(sys System) []Stabilizer {
	return []Stabilizer{
		NewSysfsBoost(sys),
		NewClamonacc(sys),
		NewSystemdInhibit(sys),
	}
}
