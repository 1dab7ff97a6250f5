//go:build windows

package stabilize

// Defaults returns the stabilizers for this platform in acquisition order.
func Defaults(sys System) []Stabilizer {
	return []Stabilizer{
		NewPowercfgBoost(sys),
		NewDefender(sys),
		NewPowerRequest(),
	}
}
