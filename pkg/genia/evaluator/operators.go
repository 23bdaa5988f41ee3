package evaluator

import (
	"math"
	"math/bits"
	"regexp"
	"sync"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

func evalPrefix(op string, right Value) (Value, error) {
	if op == "-" {
		if i, ok := right.(*Integer); ok {
			if i.Value == math.MinInt64 {
				return nil, overflow("-", NewInteger(0), i)
			}
			return NewInteger(-i.Value), nil
		}
	}
	return nil, gerrors.New("OP-0002", map[string]any{"Operator": op, "Right": Repr(right)})
}

func evalInfix(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		eq, err := Equal(left, right)
		return nativeBoolToBoolean(eq), err
	case "!=":
		eq, err := Equal(left, right)
		return nativeBoolToBoolean(!eq), err
	case "~":
		return evalMatchOperator(left, right)
	}

	if l, ok := left.(*Integer); ok {
		if r, ok := right.(*Integer); ok {
			return evalIntegerInfix(op, l.Value, r.Value)
		}
	}
	if l, ok := left.(*Text); ok {
		if r, ok := right.(*Text); ok {
			switch op {
			case "<":
				return nativeBoolToBoolean(l.Value < r.Value), nil
			case ">":
				return nativeBoolToBoolean(l.Value > r.Value), nil
			case "<=":
				return nativeBoolToBoolean(l.Value <= r.Value), nil
			case ">=":
				return nativeBoolToBoolean(l.Value >= r.Value), nil
			}
		}
	}
	return nil, unsupported(op, left, right)
}

func unsupported(op string, left, right Value) error {
	return gerrors.New("OP-0001", map[string]any{
		"Left":     typeName(left),
		"Operator": op,
		"Right":    typeName(right),
	})
}

// evalIntegerInfix applies op to two integers. Integers are int64; results
// that do not fit are errors, never wrapped.
func evalIntegerInfix(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		c := a + b
		if (c > a) != (b > 0) {
			return nil, overflow(op, NewInteger(a), NewInteger(b))
		}
		return NewInteger(c), nil
	case "-":
		c := a - b
		if (c < a) != (b > 0) {
			return nil, overflow(op, NewInteger(a), NewInteger(b))
		}
		return NewInteger(c), nil
	case "*":
		c := a * b
		if a != 0 && (c/a != b || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)) {
			return nil, overflow(op, NewInteger(a), NewInteger(b))
		}
		return NewInteger(c), nil
	case "/":
		if b == 0 {
			return nil, gerrors.New("OP-0004", nil)
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow(op, NewInteger(a), NewInteger(b))
		}
		return NewInteger(floorDiv(a, b)), nil
	case "%":
		if b == 0 {
			return nil, gerrors.New("OP-0004", nil)
		}
		if b == -1 {
			return NewInteger(0), nil
		}
		return NewInteger(floorMod(a, b)), nil
	case "<":
		return nativeBoolToBoolean(a < b), nil
	case ">":
		return nativeBoolToBoolean(a > b), nil
	case "<=":
		return nativeBoolToBoolean(a <= b), nil
	case ">=":
		return nativeBoolToBoolean(a >= b), nil
	}
	return nil, unsupported(op, NewInteger(a), NewInteger(b))
}

func overflow(op string, left, right *Integer) error {
	return gerrors.New("OP-0010", map[string]any{
		"Left":     left.Inspect(),
		"Operator": op,
		"Right":    right.Inspect(),
	})
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod takes the sign of the divisor.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

var regexCache sync.Map // pattern -> *regexp.Regexp

// evalMatchOperator tests text against a regular expression. The match is
// unanchored.
func evalMatchOperator(left, right Value) (Value, error) {
	text, ok := left.(*Text)
	pattern, ok2 := right.(*Text)
	if !ok || !ok2 {
		return nil, unsupported("~", left, right)
	}
	re, err := compileRegex(pattern.Value)
	if err != nil {
		return nil, err
	}
	return nativeBoolToBoolean(re.MatchString(text.Value)), nil
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, gerrors.Wrap("OP-0007", err, map[string]any{"Pattern": pattern})
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// MaxRangeSize is the most elements a..b may produce.
const MaxRangeSize = 10_000_000

// evalRange builds the inclusive range between two integers, descending
// when start is greater than end.
func evalRange(start, end Value) (Value, error) {
	a, ok := start.(*Integer)
	b, ok2 := end.(*Integer)
	if !ok || !ok2 {
		return nil, gerrors.New("OP-0003", map[string]any{"Left": Repr(start), "Right": Repr(end)})
	}

	// the span is taken in uint64 so that MinInt64..MaxInt64 cannot wrap
	lo, hi, step := a.Value, b.Value, int64(1)
	if lo > hi {
		lo, hi, step = hi, lo, -1
	}
	span, _ := bits.Sub64(uint64(hi), uint64(lo), 0)
	if span >= MaxRangeSize {
		return nil, gerrors.New("OP-0011", map[string]any{
			"Left":  a.Inspect(),
			"Right": b.Inspect(),
			"Max":   MaxRangeSize,
		})
	}

	n := int(span) + 1
	out := make([]Value, 0, n)
	for i, v := 0, a.Value; i < n; i, v = i+1, v+step {
		out = append(out, NewInteger(v))
	}
	return NewVector(out), nil
}
