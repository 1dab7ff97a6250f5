package scenario

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/weiihann/evalbench/workload"
)

func exprConstant(_ context.Context, p *workload.Parameter) error {
	env := map[string]any{"n": 0}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		env["n"] = number

		out, err := expr.Eval(expression, env)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func exprConstantCompiled(_ context.Context, p *workload.Parameter) error {
	env := map[string]any{"n": 0}

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return fmt.Errorf("expr: %w", err)
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		env["n"] = number

		out, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func exprVariable(_ context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		out, err := expr.Eval(statement, nil)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func exprArray(_ context.Context, p *workload.Parameter) error {
	env := map[string]any{"n": p.Numbers}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		out, err := expr.Eval(statement, env)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("expr: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func exprCondensed(_ context.Context, p *workload.Parameter) error {
	out, err := expr.Eval(joinStatements(p, "[", ", ", "]"), nil)
	if err != nil {
		return fmt.Errorf("expr: %w", err)
	}

	results, err := toInts(out)
	if err != nil {
		return fmt.Errorf("expr: %w", err)
	}

	return Assert(results, p.Sum)
}
