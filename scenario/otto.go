package scenario

import (
	"context"
	"fmt"

	"github.com/robertkrimen/otto"

	"github.com/weiihann/evalbench/workload"
)

func ottoInt(v otto.Value) (int, error) {
	i, err := v.ToInteger()
	if err != nil {
		return 0, err
	}

	return int(i), nil
}

func ottoConstant(_ context.Context, p *workload.Parameter) error {
	vm := otto.New()

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		if err := vm.Set("n", number); err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		v, err := vm.Run(expression)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		result, err := ottoInt(v)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func ottoConstantCompiled(_ context.Context, p *workload.Parameter) error {
	vm := otto.New()

	script, err := vm.Compile("expression", expression)
	if err != nil {
		return fmt.Errorf("otto: %w", err)
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		if err := vm.Set("n", number); err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		v, err := vm.Run(script)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		result, err := ottoInt(v)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func ottoVariable(_ context.Context, p *workload.Parameter) error {
	vm := otto.New()

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := vm.Run(statement)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		result, err := ottoInt(v)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func ottoArray(_ context.Context, p *workload.Parameter) error {
	vm := otto.New()

	if err := vm.Set("n", p.Numbers); err != nil {
		return fmt.Errorf("otto: %w", err)
	}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := vm.Run(statement)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		result, err := ottoInt(v)
		if err != nil {
			return fmt.Errorf("otto: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func ottoCondensed(_ context.Context, p *workload.Parameter) error {
	vm := otto.New()

	v, err := vm.Run(resultsScript(p))
	if err != nil {
		return fmt.Errorf("otto: %w", err)
	}

	exported, err := v.Export()
	if err != nil {
		return fmt.Errorf("otto: %w", err)
	}

	results, err := toInts(exported)
	if err != nil {
		return fmt.Errorf("otto: %w", err)
	}

	return Assert(results, p.Sum)
}
