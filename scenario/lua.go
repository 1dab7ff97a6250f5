package scenario

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/weiihann/evalbench/workload"
)

// luaResult pops the value on top of the stack and converts it to int.
func luaResult(L *lua.LState) (int, error) {
	v := L.Get(-1)
	L.Pop(1)

	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("unexpected result type %s", v.Type())
	}

	return int(n), nil
}

func luaConstant(_ context.Context, p *workload.Parameter) error {
	L := lua.NewState()
	defer L.Close()

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		L.SetGlobal("n", lua.LNumber(number))

		if err := L.DoString("return " + expression); err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		result, err := luaResult(L)
		if err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func luaConstantCompiled(_ context.Context, p *workload.Parameter) error {
	chunk, err := parse.Parse(
		strings.NewReader("return "+expression), "expression",
	)
	if err != nil {
		return fmt.Errorf("gopher-lua: %w", err)
	}

	proto, err := lua.Compile(chunk, "expression")
	if err != nil {
		return fmt.Errorf("gopher-lua: %w", err)
	}

	L := lua.NewState()
	defer L.Close()

	fn := L.NewFunctionFromProto(proto)

	results := make([]int, 0, len(p.Numbers))
	for _, number := range p.Numbers {
		L.SetGlobal("n", lua.LNumber(number))
		L.Push(fn)

		if err := L.PCall(0, 1, nil); err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		result, err := luaResult(L)
		if err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func luaVariable(_ context.Context, p *workload.Parameter) error {
	L := lua.NewState()
	defer L.Close()

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		if err := L.DoString("return " + statement); err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		result, err := luaResult(L)
		if err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

// Lua tables are 1-based, but the statements index from 0. Key 0 lands in
// the hash part of the table, which is still a valid lookup.
func luaArray(_ context.Context, p *workload.Parameter) error {
	L := lua.NewState()
	defer L.Close()

	table := L.CreateTable(len(p.Numbers), 1)
	for i, number := range p.Numbers {
		table.RawSetInt(i, lua.LNumber(number))
	}

	L.SetGlobal("n", table)

	results := make([]int, 0, len(p.Statements))
	for _, statement := range p.Statements {
		if err := L.DoString("return " + statement); err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		result, err := luaResult(L)
		if err != nil {
			return fmt.Errorf("gopher-lua: %w", err)
		}

		results = append(results, result)
	}

	return Assert(results, p.Sum)
}

func luaCondensed(_ context.Context, p *workload.Parameter) error {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(joinStatements(p, "return {\n", ",\n", "\n}")); err != nil {
		return fmt.Errorf("gopher-lua: %w", err)
	}

	v := L.Get(-1)
	L.Pop(1)

	table, ok := v.(*lua.LTable)
	if !ok {
		return fmt.Errorf("gopher-lua: unexpected result type %s", v.Type())
	}

	results := make([]int, 0, table.Len())
	for i := 1; i <= table.Len(); i++ {
		n, ok := table.RawGetInt(i).(lua.LNumber)
		if !ok {
			return fmt.Errorf("gopher-lua: element %d is not a number", i)
		}

		results = append(results, int(n))
	}

	return Assert(results, p.Sum)
}
