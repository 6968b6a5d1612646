package resolve

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/arbor/model"
)

// Scopes is a tree of nested scopes built from an AST. Nodes for which a
// predicate holds open a new scope; every named node is defined in the
// scope enclosing it.
type Scopes struct {
	global *Scope
	byNode map[*model.Node]*Scope
}

// BuildScopes creates nested scopes for a tree. A scope-opening node itself is
// defined in its enclosing scope, its descendants in its own scope.
func BuildScopes(root *model.Node, opens func(*model.Node) bool) *Scopes {
	scopes := &Scopes{byNode: make(map[*model.Node]*Scope)}
	st := &ScopeTree{}
	scopes.global = st.PushNewScope("globals")
	scopes.global.Node = root
	var build func(n *model.Node)
	build = func(n *model.Node) {
		if name := NameOf(n); name != "" {
			st.Current().Define(name, n)
		}
		open := n != root && opens(n)
		if open {
			sc := st.PushNewScope(n.String())
			sc.Node = n
			scopes.byNode[n] = sc
		}
		for _, c := range n.Children() {
			build(c)
		}
		if open {
			st.PopScope()
		}
	}
	build(root)
	return scopes
}

// Globals returns the outermost scope.
func (scopes *Scopes) Globals() *Scope {
	return scopes.global
}

// For returns the innermost scope visible from n.
func (scopes *Scopes) For(n *model.Node) *Scope {
	for a := n; a != nil; a = a.Parent() {
		if sc, ok := scopes.byNode[a]; ok {
			return sc
		}
	}
	return scopes.global
}

// Lexical is a scope provider for block-structured languages: a reference is
// looked up in the innermost scope enclosing the referring node, then in the
// scopes around it.
func Lexical(opens func(*model.Node) bool) ScopeProvider {
	return func(n *model.Node, run *Run) (*Scope, error) {
		scopes := run.memoize("lexical", func() interface{} {
			return BuildScopes(run.Root, opens)
		}).(*Scopes)
		return scopes.For(n), nil
	}
}

// OfType returns a predicate for Lexical, opening a scope for nodes of the
// given types.
func OfType(typeNames ...string) func(*model.Node) bool {
	return func(n *model.Node) bool {
		for _, t := range typeNames {
			if n.Type().IsSubtypeOf(t) {
				return true
			}
		}
		return false
	}
}
