package scenario

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/weiihann/evalbench/workload"
)

func gojaConstant(_ context.Context, p *workload.Parameter) error {
	vm := goja.New()

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		if err := vm.Set("n", number); err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		v, err := vm.RunString(expression)
		if err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		results = append(results, int(v.ToInteger()))
	}

	return Assert(results, p.Sum)
}

func gojaConstantCompiled(_ context.Context, p *workload.Parameter) error {
	program, err := goja.Compile("expression", expression, false)
	if err != nil {
		return fmt.Errorf("goja: %w", err)
	}

	vm := goja.New()

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		if err := vm.Set("n", number); err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		v, err := vm.RunProgram(program)
		if err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		results = append(results, int(v.ToInteger()))
	}

	return Assert(results, p.Sum)
}

func gojaVariable(_ context.Context, p *workload.Parameter) error {
	vm := goja.New()

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := vm.RunString(statement)
		if err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		results = append(results, int(v.ToInteger()))
	}

	return Assert(results, p.Sum)
}

func gojaArray(_ context.Context, p *workload.Parameter) error {
	vm := goja.New()

	if err := vm.Set("n", p.Numbers); err != nil {
		return fmt.Errorf("goja: %w", err)
	}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := vm.RunString(statement)
		if err != nil {
			return fmt.Errorf("goja: %w", err)
		}

		results = append(results, int(v.ToInteger()))
	}

	return Assert(results, p.Sum)
}

func gojaCondensed(_ context.Context, p *workload.Parameter) error {
	vm := goja.New()

	v, err := vm.RunString(resultsScript(p))
	if err != nil {
		return fmt.Errorf("goja: %w", err)
	}

	results, err := toInts(v.Export())
	if err != nil {
		return fmt.Errorf("goja: %w", err)
	}

	return Assert(results, p.Sum)
}
