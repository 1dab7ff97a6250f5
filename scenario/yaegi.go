package scenario

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/traefik/yaegi/interp"

	"github.com/weiihann/evalbench/workload"
)

const yaegiFuncSource = `
package main

func Eval(n int) int {
	return ` + expression + `
}
`

// yaegi cannot set an interpreted global from the host, so the constant
// scenario assigns n through the interpreter before every evaluation.
func yaegiConstant(_ context.Context, p *workload.Parameter) error {
	i := interp.New(interp.Options{})

	if _, err := i.Eval("var n int"); err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		if _, err := i.Eval("n = " + strconv.Itoa(number)); err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		v, err := i.Eval(expression)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		result, err := toInt(v)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func yaegiConstantCompiled(_ context.Context, p *workload.Parameter) error {
	i := interp.New(interp.Options{})

	if _, err := i.Eval(yaegiFuncSource); err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	v, err := i.Eval("main.Eval")
	if err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	eval, ok := v.Interface().(func(int) int)
	if !ok {
		return fmt.Errorf("yaegi: unexpected function type %s", v.Type())
	}

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		results = append(results, eval(number))
	}

	return Assert(results, p.Sum)
}

func yaegiVariable(_ context.Context, p *workload.Parameter) error {
	i := interp.New(interp.Options{})

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := i.Eval(statement)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		result, err := toInt(v)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

// The array is exported as a host symbol and aliased to n once.
func yaegiArray(_ context.Context, p *workload.Parameter) error {
	numbers := p.Numbers

	i := interp.New(interp.Options{})

	if err := i.Use(interp.Exports{
		"bench/bench": {
			"N": reflect.ValueOf(&numbers).Elem(),
		},
	}); err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	if _, err := i.Eval(`import "bench"`); err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	if _, err := i.Eval("var n = bench.N"); err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		v, err := i.Eval(statement)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		result, err := toInt(v)
		if err != nil {
			return fmt.Errorf("yaegi: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func yaegiCondensed(_ context.Context, p *workload.Parameter) error {
	src := "[]int{}"
	if len(p.Statements) > 0 {
		src = joinStatements(p, "[]int{\n", ",\n", ",\n}")
	}

	i := interp.New(interp.Options{})

	v, err := i.Eval(src)
	if err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	results, err := toInts(v)
	if err != nil {
		return fmt.Errorf("yaegi: %w", err)
	}

	return Assert(results, p.Sum)
}
