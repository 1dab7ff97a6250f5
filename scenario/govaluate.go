package scenario

import (
	"context"
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/weiihann/evalbench/workload"
)

// govaluate works on float64 throughout; parameters are passed as float64
// and results truncated back to int.

func govaluateConstant(_ context.Context, p *workload.Parameter) error {
	params := map[string]any{"n": 0.0}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		e, err := govaluate.NewEvaluableExpression(expression)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		params["n"] = float64(number)

		out, err := e.Evaluate(params)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func govaluateConstantCompiled(_ context.Context, p *workload.Parameter) error {
	e, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return fmt.Errorf("govaluate: %w", err)
	}

	params := map[string]any{"n": 0.0}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		params["n"] = float64(number)

		out, err := e.Evaluate(params)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func govaluateVariable(_ context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		e, err := govaluate.NewEvaluableExpression(statement)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		out, err := e.Evaluate(nil)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		result, err := toInt(out)
		if err != nil {
			return fmt.Errorf("govaluate: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}
