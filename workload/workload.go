// Package workload generates the deterministic benchmark parameters fed to
// every scenario. A parameter holds the inputs for one invocation and the
// expected sum of all results, which serves as the correctness oracle.
package workload

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// DefaultSizes are the parameter sizes every scenario runs with.
var DefaultSizes = []int{100, 1000}

// Kind selects the shape of a generated parameter.
type Kind string

const (
	// KindConstant yields numbers only; the expression is fixed.
	KindConstant Kind = "constant"
	// KindVariable yields one "i + i" statement per element.
	KindVariable Kind = "variable"
	// KindArray yields numbers plus one "n[i] + n[i]" statement per element.
	KindArray Kind = "array"
)

// Kinds returns all known kinds.
func Kinds() []Kind {
	return []Kind{KindConstant, KindVariable, KindArray}
}

// Parameter is an immutable benchmark input.
type Parameter struct {
	Numbers    []int
	Statements []string
	Sum        int

	count int
}

// Statement is the JSONL form of a single parameter element.
type Statement struct {
	Index      int    `json:"index"`
	Expression string `json:"expression"`
	Expected   int    `json:"expected"`
}

// New builds a parameter of the given kind and size.
func New(kind Kind, count int) (*Parameter, error) {
	switch kind {
	case KindConstant:
		return NewConstant(count)
	case KindVariable:
		return NewVariable(count)
	case KindArray:
		return NewArray(count)
	default:
		return nil, fmt.Errorf("unknown parameter kind %q", kind)
	}
}

// NewConstant builds the numbers 0..count-1 for binding to a fixed expression.
func NewConstant(count int) (*Parameter, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid parameter count %d", count)
	}

	return &Parameter{
		Numbers: numbers(count),
		Sum:     expectedSum(count),
		count:   count,
	}, nil
}

// NewVariable builds one self-contained "i + i" statement per element.
func NewVariable(count int) (*Parameter, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid parameter count %d", count)
	}

	statements := make([]string, count)
	for i := range statements {
		s := strconv.Itoa(i)
		statements[i] = s + " + " + s
	}

	return &Parameter{
		Statements: statements,
		Sum:        expectedSum(count),
		count:      count,
	}, nil
}

// NewArray builds the numbers 0..count-1 together with one statement per
// element that indexes into an array variable named n.
func NewArray(count int) (*Parameter, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid parameter count %d", count)
	}

	statements := make([]string, count)
	for i := range statements {
		s := strconv.Itoa(i)
		statements[i] = "n[" + s + "] + n[" + s + "]"
	}

	return &Parameter{
		Numbers:    numbers(count),
		Statements: statements,
		Sum:        expectedSum(count),
		count:      count,
	}, nil
}

// Count returns the number of elements in the parameter.
func (p *Parameter) Count() int {
	return p.count
}

// String renders the element count zero-padded to six digits. Report rows
// and file names sort correctly with it.
func (p *Parameter) String() string {
	return fmt.Sprintf("%06d", p.count)
}

// Encode writes the parameter to w as JSONL, one element per line.
// Constant parameters render the shared expression with the number
// substituted for n.
func (p *Parameter) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i := 0; i < p.count; i++ {
		expression := ""
		if i < len(p.Statements) {
			expression = p.Statements[i]
		} else {
			s := strconv.Itoa(p.Numbers[i])
			expression = s + " + " + s
		}

		if err := enc.Encode(Statement{
			Index:      i,
			Expression: expression,
			Expected:   2 * i,
		}); err != nil {
			return fmt.Errorf("encode statement %d: %w", i, err)
		}
	}

	return nil
}

func numbers(count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = i
	}

	return out
}

// expectedSum is the sum of i+i for i in [0, count).
func expectedSum(count int) int {
	return count * (count - 1)
}
