package handler

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// NumericHandler is the reference "N" base handler: formats a numeric
// value as its decimal representation.
var NumericHandler = BaseFunc(func(varName string, value any, prefix rune) (string, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	default:
		return "", &TypeError{Letter: 'N', VarName: varName, Value: value}
	}
})

// StringLiteralHandler is the reference "S" base handler: formats a
// string as a single-quoted SQL literal with embedded quotes doubled.
var StringLiteralHandler = BaseFunc(func(varName string, value any, prefix rune) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", &TypeError{Letter: 'S', VarName: varName, Value: value}
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
})

// RawHandler is the reference "R" base handler: splices a string value
// verbatim, with no escaping. Non-injection-safe by design (spec.md §1).
var RawHandler = BaseFunc(func(varName string, value any, prefix rune) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", &TypeError{Letter: 'R', VarName: varName, Value: value}
	}
	return s, nil
})

// SpreadHandler is the reference "X" special handler: spreads an
// enumerable value as "@Var_1, @Var_2, ..., @Var_N" text (using the
// template's configured prefix rune, not necessarily '@') and registers
// N bindings, one per element.
var SpreadHandler = SpecialFunc(func(varName string, value any, prefix rune) (string, []Binding, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			break
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return "", nil, &TypeError{Letter: 'X', VarName: varName, Value: value}
	}
	n := v.Len()
	if n == 0 {
		return "", nil, &EmptyError{Letter: 'X', VarName: varName}
	}

	var b strings.Builder
	bindings := make([]Binding, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%d", varName, i+1)
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteRune(prefix)
		b.WriteString(name)
		bindings = append(bindings, Binding{Name: name, Value: v.Index(i).Interface()})
	}
	return b.String(), bindings, nil
})
