package evaluator

import (
	"maps"
	"sort"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// Frame is one scope's bindings. Lookups that miss continue in the parent.
type Frame struct {
	vars   map[string]Value
	parent *Frame
}

// NewFrame creates a frame over parent. vars may be nil.
func NewFrame(parent *Frame, vars map[string]Value) *Frame {
	if vars == nil {
		vars = make(map[string]Value)
	}
	return &Frame{vars: vars, parent: parent}
}

// Get resolves name in this frame or its ancestors.
func (f *Frame) Get(name string) (Value, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Own returns a binding held by this frame only.
func (f *Frame) Own(name string) (Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Set binds name in this frame.
func (f *Frame) Set(name string, v Value) { f.vars[name] = v }

// Bindings returns a copy of this frame's own bindings.
func (f *Frame) Bindings() map[string]Value { return maps.Clone(f.vars) }

// flatten copies every visible binding into one map, innermost wins.
func (f *Frame) flatten(into map[string]Value) {
	if f == nil {
		return
	}
	f.parent.flatten(into)
	maps.Copy(into, f.vars)
}

// Environment is the frame stack of one session. The bottom frame is the
// global frame and is never popped. Record variables such as NR and $1 live
// beside the frames and are consulted after them.
type Environment struct {
	stack   []*Frame
	records map[string]Value
}

// NewEnvironment creates an environment whose global frame sits on parent.
// parent may be nil.
func NewEnvironment(parent *Frame) *Environment {
	return &Environment{
		stack:   []*Frame{NewFrame(parent, nil)},
		records: make(map[string]Value),
	}
}

// Global returns the bottom frame.
func (e *Environment) Global() *Frame { return e.stack[0] }

// Top returns the frame bindings go to.
func (e *Environment) Top() *Frame { return e.stack[len(e.stack)-1] }

// Depth is the number of frames on the stack, the global frame included.
func (e *Environment) Depth() int { return len(e.stack) }

// Push makes frame the lookup root.
func (e *Environment) Push(frame *Frame) {
	e.stack = append(e.stack, frame)
}

// Pop restores the previous frame.
func (e *Environment) Pop() error {
	if len(e.stack) <= 1 {
		return gerrors.New("INTERNAL-0001", nil)
	}
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]
	return nil
}

// Lookup resolves name through the top frame's chain, then the record
// variables.
func (e *Environment) Lookup(name string) (Value, error) {
	if v, ok := e.Top().Get(name); ok {
		return v, nil
	}
	if v, ok := e.records[name]; ok {
		return v, nil
	}
	return nil, gerrors.NewUndefinedName(name, e.Names())
}

// Bind creates or overwrites name in the top frame.
func (e *Environment) Bind(name string, v Value) {
	e.Top().Set(name, v)
}

// Capture returns the context a closure defined here closes over. Record
// variables are not part of it.
func (e *Environment) Capture() *Frame {
	return e.Top()
}

// Snapshot copies every visible binding, record variables included, into a
// detached frame.
func (e *Environment) Snapshot() *Frame {
	vars := make(map[string]Value)
	maps.Copy(vars, e.records)
	e.Top().flatten(vars)
	return NewFrame(nil, vars)
}

// SetRecord binds a record variable.
func (e *Environment) SetRecord(name string, v Value) { e.records[name] = v }

// ClearRecord removes a record variable.
func (e *Environment) ClearRecord(name string) { delete(e.records, name) }

// Names lists every visible name, sorted.
func (e *Environment) Names() []string {
	seen := make(map[string]Value)
	e.Top().flatten(seen)
	maps.Copy(seen, e.records)
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// reset drops every frame above the global one.
func (e *Environment) reset() {
	for i := 1; i < len(e.stack); i++ {
		e.stack[i] = nil
	}
	e.stack = e.stack[:1]
}
