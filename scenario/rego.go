package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/weiihann/evalbench/workload"
)

// Every Rego query binds its outcome to x; n is taken from the input
// document where the scenario needs a variable.
const (
	regoResultVar     = "x"
	regoConstantQuery = "n := input.n; x := " + expression
)

var errRegoUndefined = errors.New("undefined result")

func regoBinding(rs rego.ResultSet) (any, error) {
	if len(rs) == 0 {
		return nil, errRegoUndefined
	}

	v, ok := rs[0].Bindings[regoResultVar]
	if !ok {
		return nil, errRegoUndefined
	}

	return v, nil
}

func regoInt(rs rego.ResultSet) (int, error) {
	v, err := regoBinding(rs)
	if err != nil {
		return 0, err
	}

	return toInt(v)
}

func regoConstant(ctx context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		rs, err := rego.New(
			rego.Query(regoConstantQuery),
			rego.Input(map[string]any{"n": number}),
		).Eval(ctx)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		result, err := regoInt(rs)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func regoConstantCompiled(ctx context.Context, p *workload.Parameter) error {
	query, err := rego.New(rego.Query(regoConstantQuery)).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("rego: %w", err)
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		rs, err := query.Eval(ctx, rego.EvalInput(map[string]any{"n": number}))
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		result, err := regoInt(rs)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func regoVariable(ctx context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		rs, err := rego.New(
			rego.Query(regoResultVar + " := " + statement),
		).Eval(ctx)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		result, err := regoInt(rs)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func regoArray(ctx context.Context, p *workload.Parameter) error {
	input := map[string]any{"n": p.Numbers}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		rs, err := rego.New(
			rego.Query("n := input.n; "+regoResultVar+" := "+statement),
			rego.Input(input),
		).Eval(ctx)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		result, err := regoInt(rs)
		if err != nil {
			return fmt.Errorf("rego: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func regoCondensed(ctx context.Context, p *workload.Parameter) error {
	rs, err := rego.New(
		rego.Query(regoResultVar + " := " + joinStatements(p, "[", ", ", "]")),
	).Eval(ctx)
	if err != nil {
		return fmt.Errorf("rego: %w", err)
	}

	v, err := regoBinding(rs)
	if err != nil {
		return fmt.Errorf("rego: %w", err)
	}

	results, err := toInts(v)
	if err != nil {
		return fmt.Errorf("rego: %w", err)
	}

	return Assert(results, p.Sum)
}
