package scenario

import "github.com/weiihann/evalbench/workload"

// expression is the shared expression of the constant scenario.
const expression = "n + n"

// Constant re-evaluates "n + n" with every number bound to n. The compiled
// methods parse once per invocation and reuse the compiled form, which
// separates parse cost from evaluation cost.
func Constant() Scenario {
	return newScenario(
		"ConstantExpressionBenchmarks", "constant", workload.KindConstant,
		nativeMethod(nativeNumbers),
		Method{Name: "CEL", Description: "cel", Category: CategoryCEL, Run: celConstant},
		Method{Name: "CELCompiled", Description: "celcompiled", Category: CategoryCEL, Run: celConstantCompiled},
		Method{Name: "Expr", Description: "expr", Category: CategoryGo, Run: exprConstant},
		Method{Name: "ExprCompiled", Description: "exprcompiled", Category: CategoryGo, Run: exprConstantCompiled},
		Method{Name: "Goja", Description: "goja", Category: CategoryJavaScript, Run: gojaConstant},
		Method{Name: "GojaCompiled", Description: "gojacompiled", Category: CategoryJavaScript, Run: gojaConstantCompiled},
		Method{Name: "GopherLua", Description: "gopherlua", Category: CategoryLua, Run: luaConstant},
		Method{Name: "GopherLuaCompiled", Description: "gopherluacompiled", Category: CategoryLua, Run: luaConstantCompiled},
		Method{Name: "Govaluate", Description: "govaluate", Category: CategoryGo, Run: govaluateConstant},
		Method{Name: "GovaluateCompiled", Description: "govaluatecompiled", Category: CategoryGo, Run: govaluateConstantCompiled},
		Method{Name: "Otto", Description: "otto", Category: CategoryJavaScript, Run: ottoConstant},
		Method{Name: "OttoCompiled", Description: "ottocompiled", Category: CategoryJavaScript, Run: ottoConstantCompiled},
		Method{Name: "Rego", Description: "rego", Category: CategoryRego, Run: regoConstant},
		Method{Name: "RegoCompiled", Description: "regocompiled", Category: CategoryRego, Run: regoConstantCompiled},
		Method{Name: "Starlark", Description: "starlark", Category: CategoryPython, Run: starlarkConstant},
		Method{Name: "StarlarkCompiled", Description: "starlarkcompiled", Category: CategoryPython, Run: starlarkConstantCompiled},
		Method{Name: "Yaegi", Description: "yaegi", Category: CategoryGo, Run: yaegiConstant},
		Method{Name: "YaegiCompiled", Description: "yaegicompiled", Category: CategoryGo, Run: yaegiConstantCompiled},
	)
}

// Variable evaluates a distinct "i + i" expression per element without any
// variable binding.
func Variable() Scenario {
	return newScenario(
		"VariableExpressionBenchmarks", "variable", workload.KindVariable,
		nativeMethod(nativeStatements),
		Method{Name: "CEL", Description: "cel", Category: CategoryCEL, Run: celVariable},
		Method{Name: "Expr", Description: "expr", Category: CategoryGo, Run: exprVariable},
		Method{Name: "Goja", Description: "goja", Category: CategoryJavaScript, Run: gojaVariable},
		Method{Name: "GopherLua", Description: "gopherlua", Category: CategoryLua, Run: luaVariable},
		Method{Name: "Govaluate", Description: "govaluate", Category: CategoryGo, Run: govaluateVariable},
		Method{Name: "Otto", Description: "otto", Category: CategoryJavaScript, Run: ottoVariable},
		Method{Name: "Rego", Description: "rego", Category: CategoryRego, Run: regoVariable},
		Method{Name: "Starlark", Description: "starlark", Category: CategoryPython, Run: starlarkVariable},
		Method{Name: "Yaegi", Description: "yaegi", Category: CategoryGo, Run: yaegiVariable},
	)
}

// VariableArray binds the number array to n once and evaluates one
// "n[i] + n[i]" expression per element. govaluate has no index operator
// and is not part of this scenario.
func VariableArray() Scenario {
	return newScenario(
		"VariableExpressionArrayBenchmarks", "array", workload.KindArray,
		nativeMethod(nativeArray),
		Method{Name: "CEL", Description: "cel", Category: CategoryCEL, Run: celArray},
		Method{Name: "Expr", Description: "expr", Category: CategoryGo, Run: exprArray},
		Method{Name: "Goja", Description: "goja", Category: CategoryJavaScript, Run: gojaArray},
		Method{Name: "GopherLua", Description: "gopherlua", Category: CategoryLua, Run: luaArray},
		Method{Name: "Otto", Description: "otto", Category: CategoryJavaScript, Run: ottoArray},
		Method{Name: "Rego", Description: "rego", Category: CategoryRego, Run: regoArray},
		Method{Name: "Starlark", Description: "starlark", Category: CategoryPython, Run: starlarkArray},
		Method{Name: "Yaegi", Description: "yaegi", Category: CategoryGo, Run: yaegiArray},
	)
}

// CondensedVariable concatenates every statement into a single script and
// evaluates it in one call, measuring whole-script throughput instead of
// per-call overhead.
func CondensedVariable() Scenario {
	return newScenario(
		"CondensedVariableExpressionBenchmarks", "condensed", workload.KindVariable,
		nativeMethod(nativeStatements),
		Method{Name: "CEL", Description: "cel", Category: CategoryCEL, Run: celCondensed},
		Method{Name: "Expr", Description: "expr", Category: CategoryGo, Run: exprCondensed},
		Method{Name: "Goja", Description: "goja", Category: CategoryJavaScript, Run: gojaCondensed},
		Method{Name: "GopherLua", Description: "gopherlua", Category: CategoryLua, Run: luaCondensed},
		// govaluate cannot evaluate list literals; it runs statement by
		// statement.
		Method{Name: "Govaluate", Description: "govaluate", Category: CategoryGo, Run: govaluateVariable},
		Method{Name: "Otto", Description: "otto", Category: CategoryJavaScript, Run: ottoCondensed},
		Method{Name: "Rego", Description: "rego", Category: CategoryRego, Run: regoCondensed},
		Method{Name: "Starlark", Description: "starlark", Category: CategoryPython, Run: starlarkCondensed},
		Method{Name: "Yaegi", Description: "yaegi", Category: CategoryGo, Run: yaegiCondensed},
	)
}
