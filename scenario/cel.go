package scenario

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"

	"github.com/weiihann/evalbench/workload"
)

var int64SliceType = reflect.TypeOf([]int64{})

func celProgram(env *cel.Env, src string) (cel.Program, error) {
	ast, iss := env.Compile(src)
	if err := iss.Err(); err != nil {
		return nil, err
	}

	return env.Program(ast)
}

func celEval(prg cel.Program, activation any) (int, error) {
	out, _, err := prg.Eval(activation)
	if err != nil {
		return 0, err
	}

	return toInt(out.Value())
}

func celConstant(_ context.Context, p *workload.Parameter) error {
	env, err := cel.NewEnv(cel.Variable("n", cel.IntType))
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		prg, err := celProgram(env, expression)
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		result, err := celEval(prg, map[string]any{"n": number})
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func celConstantCompiled(_ context.Context, p *workload.Parameter) error {
	env, err := cel.NewEnv(cel.Variable("n", cel.IntType))
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	prg, err := celProgram(env, expression)
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	activation := map[string]any{"n": 0}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		activation["n"] = number

		result, err := celEval(prg, activation)
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func celVariable(_ context.Context, p *workload.Parameter) error {
	env, err := cel.NewEnv()
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		prg, err := celProgram(env, statement)
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		result, err := celEval(prg, map[string]any{})
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func celArray(_ context.Context, p *workload.Parameter) error {
	env, err := cel.NewEnv(cel.Variable("n", cel.ListType(cel.IntType)))
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	numbers := make([]int64, len(p.Numbers))
	for i, number := range p.Numbers {
		numbers[i] = int64(number)
	}

	activation := map[string]any{"n": numbers}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		prg, err := celProgram(env, statement)
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		result, err := celEval(prg, activation)
		if err != nil {
			return fmt.Errorf("cel: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func celCondensed(_ context.Context, p *workload.Parameter) error {
	env, err := cel.NewEnv()
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	prg, err := celProgram(env, joinStatements(p, "[", ", ", "]"))
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	out, _, err := prg.Eval(map[string]any{})
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	native, err := out.ConvertToNative(int64SliceType)
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	results, err := toInts(native)
	if err != nil {
		return fmt.Errorf("cel: %w", err)
	}

	return Assert(results, p.Sum)
}
