package evaluator

import (
	"strings"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// installPrelude binds the built-in routines in the session's prelude frame.
// Scripts may shadow any of them with their own definitions.
func installPrelude(s *Session) {
	builtins := map[string]Routine{
		"print": func(args []Value) (Value, error) {
			parts := make([]interface{}, len(args))
			for i, a := range args {
				parts[i] = a.Inspect()
			}
			s.Logger.LogLine(parts...)
			return UNIT, nil
		},
		"+": foldIntegers("+", NewInteger(0)),
		"*": foldIntegers("*", NewInteger(1)),
		"-": func(args []Value) (Value, error) {
			if len(args) == 1 {
				return evalPrefix("-", args[0])
			}
			return foldIntegers("-", nil)(args)
		},
		"/": foldIntegers("/", nil),
		"%": func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, argCountError("%", "2 arguments", len(args))
			}
			return evalInfix("%", args[0], args[1])
		},
		"first": func(args []Value) (Value, error) {
			seq, err := oneSequence("first", args)
			if err != nil {
				return nil, err
			}
			empty, err := seq.IsEmpty()
			if err != nil {
				return nil, err
			}
			if empty {
				return nil, errEmptySequence
			}
			return seq.First()
		},
		"rest": func(args []Value) (Value, error) {
			seq, err := oneSequence("rest", args)
			if err != nil {
				return nil, err
			}
			return seq.Rest()
		},
		"empty?": func(args []Value) (Value, error) {
			seq, err := oneSequence("empty?", args)
			if err != nil {
				return nil, err
			}
			empty, err := seq.IsEmpty()
			return nativeBoolToBoolean(empty), err
		},
		"count": func(args []Value) (Value, error) {
			seq, err := oneSequence("count", args)
			if err != nil {
				return nil, err
			}
			items, err := Materialize(seq)
			if err != nil {
				return nil, err
			}
			return NewInteger(int64(len(items))), nil
		},
		"nth": func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, argCountError("nth", "2 arguments", len(args))
			}
			seq, err := wantSequence("nth", args[0])
			if err != nil {
				return nil, err
			}
			n, err := wantInteger("nth", args[1])
			if err != nil {
				return nil, err
			}
			v, ok, err := Nth(seq, int(n))
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, gerrors.New("OP-0006", map[string]any{
					"Function": "nth",
					"Expected": "an index inside the sequence",
					"Got":      n,
				})
			}
			return v, nil
		},
		"take": func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, argCountError("take", "2 arguments", len(args))
			}
			n, err := wantInteger("take", args[0])
			if err != nil {
				return nil, err
			}
			seq, err := wantSequence("take", args[1])
			if err != nil {
				return nil, err
			}
			if n < 0 {
				n = 0
			}
			items, _, err := Take(seq, int(n))
			if err != nil {
				return nil, err
			}
			return NewVector(append([]Value(nil), items...)), nil
		},
		"list": func(args []Value) (Value, error) {
			seq, err := oneSequence("list", args)
			if err != nil {
				return nil, err
			}
			items, err := Materialize(seq)
			if err != nil {
				return nil, err
			}
			return NewVector(append([]Value(nil), items...)), nil
		},
		"cons": func(args []Value) (Value, error) {
			if len(args) != 2 {
				return nil, argCountError("cons", "2 arguments", len(args))
			}
			switch tail := args[1].(type) {
			case *Thunk:
				return &Cons{Head: args[0], Tail: tail.Delay}, nil
			case Sequence:
				return &Cons{Head: args[0], Tail: NewLiteralDelay(tail)}, nil
			}
			return nil, gerrors.New("OP-0006", map[string]any{
				"Function": "cons",
				"Expected": "a delay or a sequence as the tail",
				"Got":      typeName(args[1]),
			})
		},
		"force": func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, argCountError("force", "1 argument", len(args))
			}
			v := args[0]
			for {
				t, ok := v.(*Thunk)
				if !ok {
					return v, nil
				}
				forced, err := t.Delay.Force()
				if err != nil {
					return nil, err
				}
				v = forced
			}
		},
		"str": func(args []Value) (Value, error) {
			var sb strings.Builder
			for _, a := range args {
				sb.WriteString(a.Inspect())
			}
			return NewText(sb.String()), nil
		},
		"type": func(args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, argCountError("type", "1 argument", len(args))
			}
			if adt, ok := args[0].(*ADTInstance); ok {
				return NewText(adt.TypeName), nil
			}
			return NewText(strings.ToLower(string(args[0].Type()))), nil
		},
	}

	for name, fn := range builtins {
		s.prelude.Set(name, NewBuiltin(name, fn))
	}
}

// PreludeNames lists the built-in routine names, for completion and hints.
func PreludeNames() []string {
	return []string{"%", "*", "+", "-", "/", "cons", "count", "empty?", "first", "force", "list", "nth", "print", "rest", "str", "take", "type"}
}

// foldIntegers folds op over its arguments left to right. With no arguments
// it returns identity, or fails when identity is nil.
func foldIntegers(op string, identity Value) Routine {
	return func(args []Value) (Value, error) {
		if len(args) == 0 {
			if identity == nil {
				return nil, argCountError(op, "at least 1 argument", 0)
			}
			return identity, nil
		}
		acc := args[0]
		if _, err := wantInteger(op, acc); err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			v, err := evalInfix(op, acc, a)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}
}

func argCountError(fn, expected string, got int) error {
	return gerrors.New("OP-0006", map[string]any{
		"Function": fn,
		"Expected": expected,
		"Got":      got,
	})
}

func oneSequence(fn string, args []Value) (Sequence, error) {
	if len(args) != 1 {
		return nil, argCountError(fn, "1 argument", len(args))
	}
	return wantSequence(fn, args[0])
}

func wantSequence(fn string, v Value) (Sequence, error) {
	if seq, ok := v.(Sequence); ok {
		return seq, nil
	}
	return nil, gerrors.New("OP-0006", map[string]any{
		"Function": fn,
		"Expected": "a sequence",
		"Got":      typeName(v),
	})
}

func wantInteger(fn string, v Value) (int64, error) {
	if i, ok := v.(*Integer); ok {
		return i.Value, nil
	}
	return 0, gerrors.New("OP-0006", map[string]any{
		"Function": fn,
		"Expected": "an integer",
		"Got":      typeName(v),
	})
}
