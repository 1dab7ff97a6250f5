// Package harness runs benchmark scenarios in-process and records
// per-iteration latency and allocation measurements.
package harness

// Measurement is one measured iteration of a method.
type Measurement struct {
	Iteration   int     `json:"iteration"`
	NsPerOp     float64 `json:"ns_per_op"`
	BytesPerOp  uint64  `json:"bytes_per_op"`
	AllocsPerOp uint64  `json:"allocs_per_op"`
}

// Result holds every measurement of one method for one parameter size.
type Result struct {
	RunID        string        `json:"run_id,omitempty"`
	Scenario     string        `json:"scenario"`
	Method       string        `json:"method"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Baseline     bool          `json:"baseline"`
	Parameter    string        `json:"parameter"`
	Size         int           `json:"size"`
	Measurements []Measurement `json:"measurements"`
}
