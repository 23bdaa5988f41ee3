package evaluator

import (
	"path"
	"sort"
	"sync"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// Resolver maps a foreign target such as "os.read_lines" to a host routine.
type Resolver interface {
	Resolve(target string) (Routine, error)
}

// Registry is a Resolver backed by a name table. Targets may be filtered
// with glob patterns: when Allow is non-empty a target must match one of
// its patterns, and a target matching any Deny pattern is refused.
type Registry struct {
	mu       sync.RWMutex
	routines map[string]Routine
	allow    []string
	deny     []string
}

// NewRegistry creates an empty registry that allows every target.
func NewRegistry() *Registry {
	return &Registry{routines: make(map[string]Routine)}
}

// Register adds or replaces a routine.
func (r *Registry) Register(name string, fn Routine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routines[name] = fn
}

// SetPolicy replaces the allow and deny patterns.
func (r *Registry) SetPolicy(allow, deny []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allow = append([]string(nil), allow...)
	r.deny = append([]string(nil), deny...)
}

// Names lists the registered targets, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.routines))
	for n := range r.routines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve implements Resolver.
func (r *Registry) Resolve(target string) (Routine, error) {
	r.mu.RLock()
	fn, ok := r.routines[target]
	allowed := r.permits(target)
	r.mu.RUnlock()

	if !ok {
		err := gerrors.New("FOREIGN-0001", map[string]any{"Target": target})
		if suggestion := gerrors.FindClosestMatch(target, r.Names()); suggestion != "" {
			err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
		}
		return nil, err
	}
	if !allowed {
		return nil, gerrors.New("FOREIGN-0003", map[string]any{"Target": target})
	}
	return fn, nil
}

func (r *Registry) permits(target string) bool {
	for _, pattern := range r.deny {
		if globMatch(pattern, target) {
			return false
		}
	}
	if len(r.allow) == 0 {
		return true
	}
	for _, pattern := range r.allow {
		if globMatch(pattern, target) {
			return true
		}
	}
	return false
}

func globMatch(pattern, target string) bool {
	ok, err := path.Match(pattern, target)
	return err == nil && ok
}
