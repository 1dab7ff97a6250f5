package scenario

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/weiihann/evalbench/workload"
)

// toInt converts a Go value returned by an engine into an int.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float32:
		return int(x), nil
	case float64:
		return int(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), nil
		}

		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("convert %q: %w", x, err)
		}

		return int(f), nil
	case reflect.Value:
		if !x.IsValid() {
			return 0, fmt.Errorf("convert invalid value")
		}

		return toInt(x.Interface())
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// toInts converts any slice or array returned by an engine into []int.
func toInts(v any) ([]int, error) {
	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot convert %T to []int", v)
	}

	out := make([]int, rv.Len())
	for i := range out {
		n, err := toInt(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		out[i] = n
	}

	return out, nil
}

// joinStatements concatenates the statements of p between open and close,
// separated by sep.
func joinStatements(p *workload.Parameter, open, sep, close string) string {
	var b strings.Builder

	b.WriteString(open)

	for i, s := range p.Statements {
		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(s)
	}

	b.WriteString(close)

	return b.String()
}

// resultsScript renders a JavaScript immediately-invoked function that
// assigns every statement into a results array and returns it.
func resultsScript(p *workload.Parameter) string {
	var b strings.Builder

	b.WriteString("(function () {\nvar results = [];\n")

	for i, s := range p.Statements {
		fmt.Fprintf(&b, "results[%d] = %s;\n", i, s)
	}

	b.WriteString("return results;\n})()")

	return b.String()
}
