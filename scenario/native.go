package scenario

import (
	"context"

	"github.com/weiihann/evalbench/workload"
)

func nativeMethod(run RunFunc) Method {
	return Method{
		Name:        "Native",
		Description: "native",
		Category:    CategoryGo,
		Baseline:    true,
		Run:         run,
	}
}

func nativeNumbers(_ context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Numbers))
	for _, n := range p.Numbers {
		results = append(results, n+n)
	}

	return Assert(results, p.Sum)
}

func nativeStatements(_ context.Context, p *workload.Parameter) error {
	results := make([]int, 0, len(p.Statements))
	for i := range p.Statements {
		results = append(results, i+i)
	}

	return Assert(results, p.Sum)
}

func nativeArray(_ context.Context, p *workload.Parameter) error {
	n := p.Numbers

	results := make([]int, 0, len(p.Statements))
	for i := range p.Statements {
		results = append(results, n[i]+n[i])
	}

	return Assert(results, p.Sum)
}
