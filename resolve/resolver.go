package resolve

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// NameAttribute is the attribute holding the name of a node.
const NameAttribute = "name"

// NameOf returns the name of a node, or "" if it has none.
func NameOf(n *model.Node) string {
	if n == nil || n.Type().Feature(NameAttribute) == nil {
		return ""
	}
	name, _ := n.Get(NameAttribute).(string)
	return name
}

// Run is the state of a single resolution run.
type Run struct {
	Root *model.Node
	memo map[string]interface{}
}

// Memo returns the scope stored under key, building it on first use. Scope
// providers use it to build scopes once per run.
func (run *Run) Memo(key string, build func() *Scope) *Scope {
	sc, _ := run.memoize(key, func() interface{} { return build() }).(*Scope)
	return sc
}

func (run *Run) memoize(key string, build func() interface{}) interface{} {
	if v, ok := run.memo[key]; ok {
		return v
	}
	v := build()
	run.memo[key] = v
	return v
}

// ScopeProvider returns the scope in which the references of node n are to be
// looked up.
type ScopeProvider func(n *model.Node, run *Run) (*Scope, error)

// Resolver resolves references of ASTs. Resolvers may be shared between
// goroutines once all scope providers are registered.
type Resolver struct {
	mx    sync.RWMutex
	rules map[string]ScopeProvider // key is "Type#feature"
}

// NewResolver creates a resolver without any scope providers.
func NewResolver() *Resolver {
	return &Resolver{rules: make(map[string]ScopeProvider)}
}

// ScopeFor registers a scope provider for reference feature of nodes of type
// typeName and its sub-types.
func (r *Resolver) ScopeFor(typeName, feature string, p ScopeProvider) *Resolver {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.rules[typeName+"#"+feature] = p
	return r
}

func (r *Resolver) provider(t *meta.Type, feature string) ScopeProvider {
	r.mx.RLock()
	defer r.mx.RUnlock()
	for _, name := range t.ChainNames() {
		if p, ok := r.rules[name+"#"+feature]; ok {
			return p
		}
	}
	return nil
}

// Resolve tries to retrieve the targets of all references of a tree which are
// not yet retrieved. References are looked up by name; references which know
// the ID of their target are retrieved by ID if their name is not found.
// Failures are reported as issues. An error is returned only if a scope
// provider fails.
func (r *Resolver) Resolve(root *model.Node) ([]arbor.Issue, error) {
	var issues []arbor.Issue
	run := &Run{Root: root, memo: make(map[string]interface{})}
	err := model.Walk(root, func(n *model.Node) error {
		for _, f := range n.Type().References() {
			for _, ref := range refs(n.Value(f)) {
				if ref.Retrieved() {
					continue
				}
				p := r.provider(n.Type(), f.Name)
				if p == nil {
					tracer().Debugf("no scope for %s.%s", n.Type().Name, f.Name)
					break
				}
				scope, err := p(n, run)
				if err != nil {
					return fmt.Errorf("scope for %s.%s: %w", n.Type().Name, f.Name, err)
				}
				if scope != nil {
					if sym, _ := scope.Resolve(ref.Name); sym != nil {
						ref.SetReferred(sym.Node)
						continue
					}
				}
				if ref.Identifier != "" {
					if target := model.Find(root, ref.Identifier); target != nil {
						ref.SetReferred(target)
						continue
					}
				}
				issues = append(issues, arbor.Issue{
					Type:     arbor.Semantic,
					Severity: arbor.Error,
					Message:  fmt.Sprintf("cannot resolve %q for %s of %s", ref.Name, f.Name, n),
					Position: n.Position(),
				})
			}
		}
		return nil
	})
	tracer().Debugf("resolved references with %d issues", len(issues))
	return issues, err
}

func refs(v interface{}) []*model.ReferenceByName {
	switch r := v.(type) {
	case *model.ReferenceByName:
		if r != nil {
			return []*model.ReferenceByName{r}
		}
	case []*model.ReferenceByName:
		return r
	}
	return nil
}

// --- Scope providers -------------------------------------------------------

// Siblings is a scope provider for references to nodes contained in the same
// container: the scope holds the named nodes of containment feature of the
// nearest node (n itself or an ancestor) having that feature.
func Siblings(feature string) ScopeProvider {
	return func(n *model.Node, run *Run) (*Scope, error) {
		var container *model.Node
		for a := n; a != nil; a = a.Parent() {
			if a.Type().Feature(feature) != nil {
				container = a
				break
			}
		}
		if container == nil {
			return nil, nil
		}
		key := fmt.Sprintf("siblings:%s:%p", feature, container)
		return run.Memo(key, func() *Scope {
			sc := NewScope(feature, nil)
			sc.Node = container
			for _, c := range nodes(container.Get(feature)) {
				if name := NameOf(c); name != "" {
					sc.Define(name, c)
				}
			}
			return sc
		}), nil
	}
}

// Global is a scope provider for references to any named node of type
// typeName (or a sub-type) within the tree being resolved.
func Global(typeName string) ScopeProvider {
	return func(n *model.Node, run *Run) (*Scope, error) {
		return run.Memo("global:"+typeName, func() *Scope {
			sc := NewScope(typeName, nil)
			model.Walk(run.Root, func(c *model.Node) error {
				if c.Type().IsSubtypeOf(typeName) {
					if name := NameOf(c); name != "" {
						sc.Define(name, c)
					}
				}
				return nil
			})
			return sc
		}), nil
	}
}

func nodes(v interface{}) []*model.Node {
	switch c := v.(type) {
	case *model.Node:
		if c != nil {
			return []*model.Node{c}
		}
	case []*model.Node:
		return c
	}
	return nil
}
