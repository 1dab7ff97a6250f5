// Package scenario defines the benchmark scenarios. A scenario pairs a
// parameter shape with one measured method per evaluator, plus a native
// baseline. Every method builds its own engine, evaluates every element
// of the parameter and asserts the sum of the results.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weiihann/evalbench/workload"
)

// ErrResultMismatch is returned when the results of a method do not add
// up to the expected sum of its parameter.
var ErrResultMismatch = errors.New("result mismatch")

// Evaluator categories, grouped by the language the engine accepts.
const (
	CategoryGo         = "Go"
	CategoryJavaScript = "JavaScript"
	CategoryLua        = "Lua"
	CategoryPython     = "Python"
	CategoryCEL        = "CEL"
	CategoryRego       = "Rego"
)

// RunFunc performs one complete benchmark invocation for a parameter.
type RunFunc func(ctx context.Context, p *workload.Parameter) error

// Method is a single measured operation of a scenario.
type Method struct {
	Name        string
	Description string
	Category    string
	Baseline    bool
	Run         RunFunc
}

// Scenario is a named set of methods sharing one parameter kind.
type Scenario struct {
	Name    string
	Alias   string
	Kind    workload.Kind
	Methods []Method
}

func newScenario(
	name, alias string,
	kind workload.Kind,
	methods ...Method,
) Scenario {
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Name < methods[j].Name
	})

	return Scenario{
		Name:    name,
		Alias:   alias,
		Kind:    kind,
		Methods: methods,
	}
}

// All returns every scenario, sorted by name. Methods within a scenario
// are sorted by name.
func All() []Scenario {
	all := []Scenario{
		Constant(),
		Variable(),
		VariableArray(),
		CondensedVariable(),
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all
}

// Lookup finds a scenario by name or alias, ignoring case.
func Lookup(name string) (Scenario, bool) {
	for _, s := range All() {
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.Alias, name) {
			return s, true
		}
	}

	return Scenario{}, false
}

// Parameter builds the input of the given size for this scenario.
func (s Scenario) Parameter(size int) (*workload.Parameter, error) {
	return workload.New(s.Kind, size)
}

// Select returns the methods at the given indexes, in the given order.
// Out-of-range indexes are skipped.
func (s Scenario) Select(indexes []int) []Method {
	selected := make([]Method, 0, len(indexes))

	for _, idx := range indexes {
		if idx < 0 || idx >= len(s.Methods) {
			continue
		}

		selected = append(selected, s.Methods[idx])
	}

	return selected
}

// Method returns the method with the given name, ignoring case.
func (s Scenario) Method(name string) (Method, bool) {
	for _, m := range s.Methods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}

	return Method{}, false
}

// WithMethods returns a copy of the scenario restricted to methods.
func (s Scenario) WithMethods(methods []Method) Scenario {
	s.Methods = methods

	return s
}

// Warmup runs every method once per size. Engines with expensive first
// use (interpreter start-up, lazily built tables) pay that cost here
// instead of inside the first measured iteration.
func (s Scenario) Warmup(ctx context.Context, sizes []int) error {
	for _, size := range sizes {
		p, err := s.Parameter(size)
		if err != nil {
			return err
		}

		for _, m := range s.Methods {
			if err := m.Run(ctx, p); err != nil {
				return fmt.Errorf("%s %s: %w", m.Name, p, err)
			}
		}
	}

	return nil
}

// Assert checks that results add up to expected.
func Assert(results []int, expected int) error {
	sum := 0
	for _, r := range results {
		sum += r
	}

	if sum != expected {
		return ErrResultMismatch
	}

	return nil
}
