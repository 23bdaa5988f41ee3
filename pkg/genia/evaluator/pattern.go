package evaluator

import (
	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
)

// Bindings collects the names a successful match binds.
type Bindings map[string]Value

// Match reports whether v matches p, adding bindings to b. On a failed match
// b may hold partial bindings, so callers pass scratch maps and keep them
// only on success.
func Match(p ast.Pattern, v Value, b Bindings) (bool, error) {
	switch p := p.(type) {
	case *ast.WildcardPattern:
		return true, nil

	case *ast.IdentifierPattern:
		b[p.Name] = v
		return true, nil

	case *ast.NumberPattern:
		i, ok := v.(*Integer)
		return ok && i.Value == p.Value, nil

	case *ast.StringPattern:
		t, ok := v.(*Text)
		return ok && t.Value == p.Value, nil

	case *ast.RestPattern:
		// only reachable as a lone parameter; the dispatcher binds variadic args
		bindRest(p, v, b)
		return true, nil

	case *ast.ListPattern:
		seq, ok := v.(Sequence)
		if !ok {
			return false, nil
		}
		if p.IsScan() {
			return matchScan(p, seq, b)
		}
		return matchList(p, seq, b)

	case *ast.ConstructorPattern:
		inst, ok := v.(*ADTInstance)
		if !ok || inst.Ctor != p.Name || len(inst.Fields) != len(p.Args) {
			return false, nil
		}
		for i, arg := range p.Args {
			ok, err := Match(arg, inst.Fields[i], b)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

func bindRest(p *ast.RestPattern, v Value, b Bindings) {
	if p.Name != "_" {
		b[p.Name] = v
	}
}

// matchList handles list patterns with at most one rest marker. Without a
// marker the sequence must have exactly as many elements as the pattern; one
// element past the end is pulled to prove that.
func matchList(p *ast.ListPattern, seq Sequence, b Bindings) (bool, error) {
	restIdx, _ := p.RestIndex()
	if restIdx < 0 {
		items, short, err := Take(seq, len(p.Elements)+1)
		if err != nil {
			return false, err
		}
		if !short || len(items) != len(p.Elements) {
			return false, nil
		}
		for i, elem := range p.Elements {
			ok, err := Match(elem, items[i], b)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}

	cur := seq
	for _, elem := range p.Elements[:restIdx] {
		empty, err := cur.IsEmpty()
		if err != nil || empty {
			return false, err
		}
		head, err := cur.First()
		if err != nil {
			return false, err
		}
		ok, err := Match(elem, head, b)
		if err != nil || !ok {
			return false, err
		}
		if cur, err = cur.Rest(); err != nil {
			return false, err
		}
	}

	rest := p.Elements[restIdx].(*ast.RestPattern)
	suffix := p.Elements[restIdx+1:]
	if len(suffix) == 0 {
		bindRest(rest, cur, b)
		return true, nil
	}

	remaining, err := Materialize(cur)
	if err != nil {
		return false, err
	}
	if len(remaining) < len(suffix) {
		return false, nil
	}
	split := len(remaining) - len(suffix)
	bindRest(rest, NewVector(remaining[:split:split]), b)
	for i, elem := range suffix {
		ok, err := Match(elem, remaining[split+i], b)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// matchScan handles [..pre, mid, ..post]: pre is everything before the first
// element matching mid, post everything after it.
func matchScan(p *ast.ListPattern, seq Sequence, b Bindings) (bool, error) {
	pre := p.Elements[0].(*ast.RestPattern)
	mid := p.Elements[1]
	post := p.Elements[2].(*ast.RestPattern)

	var before []Value
	cur := seq
	for {
		empty, err := cur.IsEmpty()
		if err != nil || empty {
			return false, err
		}
		head, err := cur.First()
		if err != nil {
			return false, err
		}
		trial := Bindings{}
		ok, err := Match(mid, head, trial)
		if err != nil {
			return false, err
		}
		tail, err := cur.Rest()
		if err != nil {
			return false, err
		}
		if ok {
			bindRest(pre, NewVector(before), b)
			for k, v := range trial {
				b[k] = v
			}
			bindRest(post, tail, b)
			return true, nil
		}
		before = append(before, head)
		cur = tail
	}
}
