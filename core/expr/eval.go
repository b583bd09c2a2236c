/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// ErrDivisionByZero is returned for x / 0 and x % 0.
var ErrDivisionByZero = errors.New("division by zero")

func eval(node Node, row columns.Row) (values.Value, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		return row.Get(n.Name), nil

	case *UnaryOp:
		v, err := eval(n.Expr, row)
		if err != nil {
			return values.Null(), err
		}
		if n.Op == TokenNot {
			return values.Bool(!truthy(v)), nil
		}
		if v.IsNull() {
			return v, nil
		}
		f, ok := values.ParseNumber(v)
		if !ok {
			return values.Null(), fmt.Errorf("cannot negate %s", v.Kind())
		}
		return values.Number(-f), nil

	case *BinaryOp:
		left, err := eval(n.Left, row)
		if err != nil {
			return values.Null(), err
		}
		// and/or short-circuit
		switch n.Op {
		case TokenAnd:
			if !truthy(left) {
				return values.Bool(false), nil
			}
			right, err := eval(n.Right, row)
			return values.Bool(truthy(right)), err
		case TokenOr:
			if truthy(left) {
				return values.Bool(true), nil
			}
			right, err := eval(n.Right, row)
			return values.Bool(truthy(right)), err
		}
		right, err := eval(n.Right, row)
		if err != nil {
			return values.Null(), err
		}
		return binary(n.Op, left, right)

	case *CallExpr:
		return call(n, row)
	}
	return values.Null(), fmt.Errorf("unknown node %T", node)
}

// truthy: null, false, zero and empty text are false.
func truthy(v values.Value) bool {
	switch v.Kind() {
	case values.KindBool:
		b, _ := v.AsBool()
		return b
	case values.KindNumber:
		f, _ := v.AsNumber()
		return f != 0 && !math.IsNaN(f)
	case values.KindText:
		return v.String() != ""
	case values.KindDateTime:
		return true
	default:
		return false
	}
}

func binary(op TokenType, left, right values.Value) (values.Value, error) {
	switch op {
	case TokenEQ:
		return values.Bool(equal(left, right)), nil
	case TokenNE:
		return values.Bool(!equal(left, right)), nil
	case TokenLT, TokenGT, TokenLE, TokenGE:
		if left.IsNull() || right.IsNull() {
			return values.Bool(false), nil
		}
		c := values.Compare(values.Normalize(left, false), values.Normalize(right, false))
		switch op {
		case TokenLT:
			return values.Bool(c < 0), nil
		case TokenGT:
			return values.Bool(c > 0), nil
		case TokenLE:
			return values.Bool(c <= 0), nil
		default:
			return values.Bool(c >= 0), nil
		}
	}

	// Arithmetic propagates null.
	if left.IsNull() || right.IsNull() {
		return values.Null(), nil
	}
	a, aNum := values.ParseNumber(left)
	b, bNum := values.ParseNumber(right)
	if op == TokenPlus && (!aNum || !bNum) {
		return values.Text(left.String() + right.String()), nil
	}
	if !aNum || !bNum {
		return values.Null(), fmt.Errorf("operator %s needs numbers, got %s and %s", op, left.Kind(), right.Kind())
	}
	switch op {
	case TokenPlus:
		return values.Number(a + b), nil
	case TokenMinus:
		return values.Number(a - b), nil
	case TokenStar:
		return values.Number(a * b), nil
	case TokenSlash:
		if b == 0 {
			return values.Null(), ErrDivisionByZero
		}
		return values.Number(a / b), nil
	case TokenPercent:
		if b == 0 {
			return values.Null(), ErrDivisionByZero
		}
		// Result takes the divisor's sign.
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return values.Number(m), nil
	case TokenPower:
		return values.Number(math.Pow(a, b)), nil
	}
	return values.Null(), fmt.Errorf("unknown operator %s", op)
}

// equal compares numerically when both sides are numbers and by text
// otherwise. Null equals only null.
func equal(a, b values.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if x, ok := values.ParseNumber(a); ok {
		if y, ok := values.ParseNumber(b); ok {
			return x == y
		}
	}
	return a.String() == b.String()
}

// function is a built-in. arity is the exact argument count, or the minimum
// when variadic.
type function struct {
	arity    int
	variadic bool
	fn       func(args []values.Value) (values.Value, error)
}

var functions map[string]function

func init() {
	functions = map[string]function{
		"len": {arity: 1, fn: func(a []values.Value) (values.Value, error) {
			return values.Number(float64(len([]rune(a[0].String())))), nil
		}},
		"str": {arity: 1, fn: func(a []values.Value) (values.Value, error) {
			return values.Text(a[0].String()), nil
		}},
		"num": {arity: 1, fn: func(a []values.Value) (values.Value, error) {
			if f, ok := values.ParseFloat(a[0]); ok {
				return values.Number(f), nil
			}
			return values.Null(), nil
		}},
		"abs":   numeric(math.Abs),
		"floor": numeric(math.Floor),
		"ceil":  numeric(math.Ceil),
		"round": {arity: 1, variadic: true, fn: round},
		"min":   {arity: 1, variadic: true, fn: extreme(-1)},
		"max":   {arity: 1, variadic: true, fn: extreme(1)},
		"upper": text(strings.ToUpper),
		"lower": text(strings.ToLower),
		"strip": text(strings.TrimSpace),
		"contains": {arity: 2, fn: func(a []values.Value) (values.Value, error) {
			return values.Bool(strings.Contains(strings.ToLower(a[0].String()), strings.ToLower(a[1].String()))), nil
		}},
		"startswith": {arity: 2, fn: func(a []values.Value) (values.Value, error) {
			return values.Bool(strings.HasPrefix(a[0].String(), a[1].String())), nil
		}},
		"endswith": {arity: 2, fn: func(a []values.Value) (values.Value, error) {
			return values.Bool(strings.HasSuffix(a[0].String(), a[1].String())), nil
		}},
		"replace": {arity: 3, fn: func(a []values.Value) (values.Value, error) {
			return values.Text(strings.ReplaceAll(a[0].String(), a[1].String(), a[2].String())), nil
		}},
		"concat": {arity: 0, variadic: true, fn: func(a []values.Value) (values.Value, error) {
			var sb strings.Builder
			for _, v := range a {
				sb.WriteString(v.String())
			}
			return values.Text(sb.String()), nil
		}},
		"coalesce": {arity: 1, variadic: true, fn: func(a []values.Value) (values.Value, error) {
			for _, v := range a {
				if !v.IsNull() {
					return v, nil
				}
			}
			return values.Null(), nil
		}},
		"year":  datePart(func(t time.Time) int { return t.Year() }),
		"month": datePart(func(t time.Time) int { return int(t.Month()) }),
		"day":   datePart(func(t time.Time) int { return t.Day() }),
		"days_between": {arity: 2, fn: func(a []values.Value) (values.Value, error) {
			from, ok1 := toTime(a[0])
			to, ok2 := toTime(a[1])
			if !ok1 || !ok2 {
				return values.Null(), nil
			}
			return values.Number(math.Floor(to.Sub(from).Hours() / 24)), nil
		}},
	}
}

func numeric(f func(float64) float64) function {
	return function{arity: 1, fn: func(a []values.Value) (values.Value, error) {
		x, ok := values.ParseNumber(a[0])
		if !ok {
			return values.Null(), nil
		}
		return values.Number(f(x)), nil
	}}
}

func text(f func(string) string) function {
	return function{arity: 1, fn: func(a []values.Value) (values.Value, error) {
		if a[0].IsNull() {
			return a[0], nil
		}
		return values.Text(f(a[0].String())), nil
	}}
}

func datePart(part func(time.Time) int) function {
	return function{arity: 1, fn: func(a []values.Value) (values.Value, error) {
		t, ok := toTime(a[0])
		if !ok {
			return values.Null(), nil
		}
		return values.Number(float64(part(t))), nil
	}}
}

func toTime(v values.Value) (time.Time, bool) {
	if t, ok := v.AsTime(); ok {
		return t, true
	}
	if v.IsNull() {
		return time.Time{}, false
	}
	t, err := values.ParseDate(v.String())
	return t, err == nil
}

func round(a []values.Value) (values.Value, error) {
	if len(a) > 2 {
		return values.Null(), fmt.Errorf("round takes at most 2 arguments")
	}
	x, ok := values.ParseNumber(a[0])
	if !ok {
		return values.Null(), nil
	}
	digits := 0.0
	if len(a) == 2 {
		if digits, ok = values.ParseNumber(a[1]); !ok {
			return values.Null(), fmt.Errorf("round: digits must be a number")
		}
	}
	scale := math.Pow(10, math.Trunc(digits))
	return values.Number(math.Round(x*scale) / scale), nil
}

// extreme returns min (sign -1) or max (sign 1) over the numeric arguments;
// nulls and non-numbers are skipped.
func extreme(sign int) func([]values.Value) (values.Value, error) {
	return func(a []values.Value) (values.Value, error) {
		best := values.Null()
		for _, v := range a {
			f, ok := values.ParseNumber(v)
			if !ok {
				continue
			}
			if cur, ok := best.AsNumber(); !ok || (sign < 0 && f < cur) || (sign > 0 && f > cur) {
				best = values.Number(f)
			}
		}
		return best, nil
	}
}

func call(n *CallExpr, row columns.Row) (values.Value, error) {
	argNodes := n.Args
	if n.Recv != nil {
		argNodes = append([]Node{n.Recv}, n.Args...)
	}

	// if evaluates only the chosen branch.
	if n.Func == "if" {
		if len(argNodes) != 3 {
			return values.Null(), fmt.Errorf("if takes 3 arguments, got %d", len(argNodes))
		}
		cond, err := eval(argNodes[0], row)
		if err != nil {
			return values.Null(), err
		}
		if truthy(cond) {
			return eval(argNodes[1], row)
		}
		return eval(argNodes[2], row)
	}

	f, ok := functions[n.Func]
	if !ok {
		return values.Null(), fmt.Errorf("unknown function %q", n.Func)
	}
	args := make([]values.Value, len(argNodes))
	for i, a := range argNodes {
		v, err := eval(a, row)
		if err != nil {
			return values.Null(), err
		}
		args[i] = v
	}
	return f.fn(args)
}

// checkCalls validates function names and argument counts.
func checkCalls(node Node) error {
	switch n := node.(type) {
	case *UnaryOp:
		return checkCalls(n.Expr)
	case *BinaryOp:
		return errors.Join(checkCalls(n.Left), checkCalls(n.Right))
	case *CallExpr:
		count := len(n.Args)
		var errs []error
		if n.Recv != nil {
			count++
			errs = append(errs, checkCalls(n.Recv))
		}
		for _, a := range n.Args {
			errs = append(errs, checkCalls(a))
		}
		arity, variadic := 3, false
		if n.Func != "if" {
			f, ok := functions[n.Func]
			if !ok {
				return fmt.Errorf("unknown function %q at position %d", n.Func, n.Pos)
			}
			arity, variadic = f.arity, f.variadic
		}
		if count < arity || (!variadic && count != arity) {
			errs = append(errs, fmt.Errorf("%s at position %d: wrong number of arguments (%d)", n.Func, n.Pos, count))
		}
		return errors.Join(errs...)
	}
	return nil
}

// collectFields appends the fields referenced under node.
func collectFields(node Node, seen map[string]bool, out []string) []string {
	switch n := node.(type) {
	case *Ident:
		if !seen[n.Name] {
			seen[n.Name] = true
			out = append(out, n.Name)
		}
	case *UnaryOp:
		out = collectFields(n.Expr, seen, out)
	case *BinaryOp:
		out = collectFields(n.Left, seen, out)
		out = collectFields(n.Right, seen, out)
	case *CallExpr:
		if n.Recv != nil {
			out = collectFields(n.Recv, seen, out)
		}
		for _, a := range n.Args {
			out = collectFields(a, seen, out)
		}
	}
	return out
}
