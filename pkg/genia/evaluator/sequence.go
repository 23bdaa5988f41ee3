package evaluator

import (
	"strings"
	"sync"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// Sequence is the shared shape of vectors, lazy cons cells and iterators.
// IsEmpty never needs more than one pull.
type Sequence interface {
	Value
	First() (Value, error)
	Rest() (Sequence, error)
	IsEmpty() (bool, error)
}

var errEmptySequence = gerrors.NewSimple(gerrors.ClassOperator, "cannot take the first element of an empty sequence")

// Vector is a finite, eager sequence
type Vector struct {
	Elements []Value
}

// NewVector wraps elements without copying them.
func NewVector(elements []Value) *Vector {
	if elements == nil {
		elements = []Value{}
	}
	return &Vector{Elements: elements}
}

func (v *Vector) Type() ValueType { return SEQUENCE_VAL }
func (v *Vector) Inspect() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = Repr(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v *Vector) First() (Value, error) {
	if len(v.Elements) == 0 {
		return nil, errEmptySequence
	}
	return v.Elements[0], nil
}

func (v *Vector) Rest() (Sequence, error) {
	if len(v.Elements) == 0 {
		return v, nil
	}
	return &Vector{Elements: v.Elements[1:]}, nil
}

func (v *Vector) IsEmpty() (bool, error) { return len(v.Elements) == 0, nil }

// Cons is a head value with a lazily produced tail. Infinite sequences are
// built from these.
type Cons struct {
	Head Value
	Tail *Delay
}

func (c *Cons) Type() ValueType        { return SEQUENCE_VAL }
func (c *Cons) First() (Value, error)  { return c.Head, nil }
func (c *Cons) IsEmpty() (bool, error) { return false, nil }
func (c *Cons) Rest() (Sequence, error) {
	v, err := c.Tail.Force()
	if err != nil {
		return nil, err
	}
	return asSequence(v)
}

// Inspect shows the realized prefix only; it never forces a tail.
func (c *Cons) Inspect() string {
	var parts []string
	var cur Value = c
	for {
		cell, ok := cur.(*Cons)
		if !ok {
			break
		}
		parts = append(parts, Repr(cell.Head))
		next, realized := cell.Tail.Peek()
		if !realized {
			parts = append(parts, "...")
			return "[" + strings.Join(parts, ", ") + "]"
		}
		cur = next
	}
	if v, ok := cur.(*Vector); ok {
		for _, e := range v.Elements {
			parts = append(parts, Repr(e))
		}
	} else if cur != nil {
		parts = append(parts, "..."+cur.Inspect())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// asSequence turns the value of a cons tail into a sequence. Thunks are
// forced and Unit ends the sequence.
func asSequence(v Value) (Sequence, error) {
	for {
		switch t := v.(type) {
		case Sequence:
			return t, nil
		case *Thunk:
			forced, err := t.Delay.Force()
			if err != nil {
				return nil, err
			}
			v = forced
		case *Unit:
			return NewVector(nil), nil
		default:
			return nil, gerrors.New("OP-0006", map[string]any{
				"Function": "cons",
				"Expected": "a sequence tail",
				"Got":      typeName(v),
			})
		}
	}
}

// ProducerFunc yields the next element of an iterator. ok is false once the
// source is exhausted.
type ProducerFunc func() (v Value, ok bool, err error)

type iterSource struct {
	mu   sync.Mutex
	next ProducerFunc
	buf  []Value
	done bool
}

// at returns the element at index i, pulling from the producer only for
// elements not seen before.
func (s *iterSource) at(i int) (Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) <= i && !s.done {
		v, ok, err := s.next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.done = true
			s.next = nil
			break
		}
		s.buf = append(s.buf, v)
	}
	if i < len(s.buf) {
		return s.buf[i], true, nil
	}
	return nil, false, nil
}

func (s *iterSource) realized() ([]Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf, s.done
}

// Iterator is a single-pass producer viewed as a sequence. Every element
// pulled is cached, so Rest views share the realized prefix and the
// producer is never asked twice for the same position.
type Iterator struct {
	src    *iterSource
	offset int
}

// NewIterator wraps a producer.
func NewIterator(next ProducerFunc) *Iterator {
	return &Iterator{src: &iterSource{next: next}}
}

func (it *Iterator) Type() ValueType { return SEQUENCE_VAL }

func (it *Iterator) Inspect() string {
	buf, done := it.src.realized()
	var parts []string
	if it.offset < len(buf) {
		for _, e := range buf[it.offset:] {
			parts = append(parts, Repr(e))
		}
	}
	if !done {
		parts = append(parts, "...")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (it *Iterator) First() (Value, error) {
	v, ok, err := it.src.at(it.offset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errEmptySequence
	}
	return v, nil
}

func (it *Iterator) Rest() (Sequence, error) {
	_, ok, err := it.src.at(it.offset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return it, nil
	}
	return &Iterator{src: it.src, offset: it.offset + 1}, nil
}

func (it *Iterator) IsEmpty() (bool, error) {
	_, ok, err := it.src.at(it.offset)
	return !ok, err
}

// Take pulls at most n elements from seq. The second result reports whether
// seq ran out before n elements were seen.
func Take(seq Sequence, n int) ([]Value, bool, error) {
	if v, ok := seq.(*Vector); ok {
		if n >= len(v.Elements) {
			return v.Elements, n > len(v.Elements), nil
		}
		return v.Elements[:n], false, nil
	}
	out := make([]Value, 0, n)
	cur := seq
	for len(out) < n {
		empty, err := cur.IsEmpty()
		if err != nil {
			return nil, false, err
		}
		if empty {
			return out, true, nil
		}
		v, err := cur.First()
		if err != nil {
			return nil, false, err
		}
		out = append(out, v)
		if cur, err = cur.Rest(); err != nil {
			return nil, false, err
		}
	}
	return out, false, nil
}

// Materialize realizes the whole sequence. It does not return for infinite
// sequences.
func Materialize(seq Sequence) ([]Value, error) {
	if v, ok := seq.(*Vector); ok {
		return v.Elements, nil
	}
	var out []Value
	cur := seq
	for {
		empty, err := cur.IsEmpty()
		if err != nil {
			return nil, err
		}
		if empty {
			return out, nil
		}
		v, err := cur.First()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if cur, err = cur.Rest(); err != nil {
			return nil, err
		}
	}
}

// Nth returns the zero-based nth element, pulling only what it needs.
func Nth(seq Sequence, n int) (Value, bool, error) {
	if n < 0 {
		return nil, false, nil
	}
	vals, short, err := Take(seq, n+1)
	if err != nil || short || len(vals) <= n {
		return nil, false, err
	}
	return vals[n], true, nil
}
