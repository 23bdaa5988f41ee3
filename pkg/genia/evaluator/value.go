package evaluator

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType represents the type of runtime values
type ValueType string

const (
	INTEGER_VAL  = "INTEGER"
	TEXT_VAL     = "TEXT"
	BOOLEAN_VAL  = "BOOLEAN"
	UNIT_VAL     = "UNIT"
	SEQUENCE_VAL = "SEQUENCE"
	FUNCTION_VAL = "FUNCTION"
	ADT_VAL      = "ADT"
	THUNK_VAL    = "THUNK"
)

// Value represents all runtime values. Values are immutable once produced.
type Value interface {
	Type() ValueType
	Inspect() string
}

// Integer represents integer values
type Integer struct {
	Value int64
}

func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Type() ValueType { return INTEGER_VAL }

// Text represents string values
type Text struct {
	Value string
}

func (t *Text) Inspect() string { return t.Value }
func (t *Text) Type() ValueType { return TEXT_VAL }

// Boolean is the result of comparisons and the match operator
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ValueType { return BOOLEAN_VAL }

// Unit is the value of statements with nothing to return
type Unit struct{}

func (u *Unit) Inspect() string { return "()" }
func (u *Unit) Type() ValueType { return UNIT_VAL }

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	UNIT  = &Unit{}
)

func nativeBoolToBoolean(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// NewInteger wraps an int64.
func NewInteger(n int64) *Integer { return &Integer{Value: n} }

// NewText wraps a string.
func NewText(s string) *Text { return &Text{Value: s} }

// ADTInstance is a value built by a data constructor
type ADTInstance struct {
	TypeName string
	Ctor     string
	Fields   []Value
}

func (a *ADTInstance) Type() ValueType { return ADT_VAL }
func (a *ADTInstance) Inspect() string {
	if len(a.Fields) == 0 {
		return a.Ctor
	}
	parts := make([]string, len(a.Fields))
	for i, f := range a.Fields {
		parts[i] = Repr(f)
	}
	return a.Ctor + "(" + strings.Join(parts, ", ") + ")"
}

// Thunk wraps a Delay produced by a delay expression
type Thunk struct {
	Delay *Delay
}

func (t *Thunk) Type() ValueType { return THUNK_VAL }
func (t *Thunk) Inspect() string {
	if v, ok := t.Delay.Peek(); ok {
		return "<delay " + Repr(v) + ">"
	}
	return "<delay>"
}

// Repr is the display form used inside collections: text is quoted.
func Repr(v Value) string {
	if t, ok := v.(*Text); ok {
		return strconv.Quote(t.Value)
	}
	return v.Inspect()
}

// Truthy reports how a guard or condition reads v. false, 0, "", Unit and
// empty sequences are falsy.
func Truthy(v Value) (bool, error) {
	switch v := v.(type) {
	case *Boolean:
		return v.Value, nil
	case *Integer:
		return v.Value != 0, nil
	case *Text:
		return v.Value != "", nil
	case *Unit:
		return false, nil
	case Sequence:
		empty, err := v.IsEmpty()
		return !empty, err
	}
	return true, nil
}

// Equal compares two values structurally. Functions and thunks compare by
// identity.
func Equal(a, b Value) (bool, error) {
	switch a := a.(type) {
	case *Integer:
		bi, ok := b.(*Integer)
		return ok && a.Value == bi.Value, nil
	case *Text:
		bt, ok := b.(*Text)
		return ok && a.Value == bt.Value, nil
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value, nil
	case *Unit:
		_, ok := b.(*Unit)
		return ok, nil
	case *ADTInstance:
		ba, ok := b.(*ADTInstance)
		if !ok || a.TypeName != ba.TypeName || a.Ctor != ba.Ctor || len(a.Fields) != len(ba.Fields) {
			return false, nil
		}
		for i := range a.Fields {
			eq, err := Equal(a.Fields[i], ba.Fields[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case Sequence:
		bs, ok := b.(Sequence)
		if !ok {
			return false, nil
		}
		return sequencesEqual(a, bs)
	}
	return a == b, nil
}

func sequencesEqual(a, b Sequence) (bool, error) {
	for {
		ae, err := a.IsEmpty()
		if err != nil {
			return false, err
		}
		be, err := b.IsEmpty()
		if err != nil {
			return false, err
		}
		if ae || be {
			return ae == be, nil
		}
		af, err := a.First()
		if err != nil {
			return false, err
		}
		bf, err := b.First()
		if err != nil {
			return false, err
		}
		eq, err := Equal(af, bf)
		if err != nil || !eq {
			return false, err
		}
		if a, err = a.Rest(); err != nil {
			return false, err
		}
		if b, err = b.Rest(); err != nil {
			return false, err
		}
	}
}

// typeName is the lowercase name used in error messages.
func typeName(v Value) string {
	if v == nil {
		return "nothing"
	}
	switch v.(type) {
	case *Vector:
		return "list"
	case *Iterator, *Cons:
		return "lazy sequence"
	}
	return strings.ToLower(string(v.Type()))
}

// FromGo converts common Go values into runtime values. Unsupported types
// are rendered as text.
func FromGo(x any) Value {
	switch x := x.(type) {
	case nil:
		return UNIT
	case Value:
		return x
	case int:
		return NewInteger(int64(x))
	case int64:
		return NewInteger(x)
	case int32:
		return NewInteger(int64(x))
	case uint8:
		return NewInteger(int64(x))
	case bool:
		return nativeBoolToBoolean(x)
	case string:
		return NewText(x)
	case []byte:
		return NewText(string(x))
	case []string:
		out := make([]Value, len(x))
		for i, s := range x {
			out[i] = NewText(s)
		}
		return NewVector(out)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = FromGo(e)
		}
		return NewVector(out)
	}
	return NewText(fmt.Sprint(x))
}
