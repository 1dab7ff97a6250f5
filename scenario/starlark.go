package scenario

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/weiihann/evalbench/workload"
)

func starlarkInt(v starlark.Value) (int, error) {
	i, ok := v.(starlark.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected result type %s", v.Type())
	}

	n, ok := i.Int64()
	if !ok {
		return 0, fmt.Errorf("result %s overflows int64", i)
	}

	return int(n), nil
}

func starlarkConstant(_ context.Context, p *workload.Parameter) error {
	thread := &starlark.Thread{Name: "constant"}
	env := starlark.StringDict{}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		env["n"] = starlark.MakeInt(number)

		v, err := starlark.Eval(thread, "expression", expression, env)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		result, err := starlarkInt(v)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func starlarkConstantCompiled(_ context.Context, p *workload.Parameter) error {
	thread := &starlark.Thread{Name: "constant-compiled"}

	globals, err := starlark.ExecFile(
		thread, "expression",
		"def calc(n):\n    return "+expression+"\n",
		nil,
	)
	if err != nil {
		return fmt.Errorf("starlark: %w", err)
	}

	fn := globals["calc"]

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		v, err := starlark.Call(
			thread, fn, starlark.Tuple{starlark.MakeInt(number)}, nil,
		)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		result, err := starlarkInt(v)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func starlarkVariable(_ context.Context, p *workload.Parameter) error {
	thread := &starlark.Thread{Name: "variable"}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := starlark.Eval(thread, "statement", statement, nil)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		result, err := starlarkInt(v)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func starlarkArray(_ context.Context, p *workload.Parameter) error {
	thread := &starlark.Thread{Name: "array"}

	elems := make([]starlark.Value, len(p.Numbers))
	for i, number := range p.Numbers {
		elems[i] = starlark.MakeInt(number)
	}

	env := starlark.StringDict{"n": starlark.NewList(elems)}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := starlark.Eval(thread, "statement", statement, env)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		result, err := starlarkInt(v)
		if err != nil {
			return fmt.Errorf("starlark: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func starlarkCondensed(_ context.Context, p *workload.Parameter) error {
	thread := &starlark.Thread{Name: "condensed"}

	v, err := starlark.Eval(
		thread, "script", joinStatements(p, "[\n", ",\n", "\n]"), nil,
	)
	if err != nil {
		return fmt.Errorf("starlark: %w", err)
	}

	list, ok := v.(*starlark.List)
	if !ok {
		return fmt.Errorf("starlark: unexpected result type %s", v.Type())
	}

	results := make([]int, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		result, err := starlarkInt(list.Index(i))
		if err != nil {
			return fmt.Errorf("starlark: element %d: %w", i, err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}
