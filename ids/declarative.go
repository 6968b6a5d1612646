package ids

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// NamingFunc computes a semantic ID for a node. IDs of other nodes, e.g.
// ancestors, should be requested from `ids`.
type NamingFunc func(n *model.Node, ids Provider) (string, error)

// Declarative names nodes by rules for node types. A rule applies to a node if
// the node's type is the rule's type or one of its subtypes. If more than one
// rule applies, the most specific type wins; ties are broken by the
// lexicographic order of type names.
//
//    d := ids.NewDeclarative().
//        IDFor("Package", func(n *model.Node, _ ids.Provider) (string, error) {
//            return n.Get("name").(string), nil
//        })
//
type Declarative struct {
	rules    *treemap.Map // type name → NamingFunc
	topLevel Provider
}

// NewDeclarative creates a provider without any rules.
func NewDeclarative() *Declarative {
	return &Declarative{rules: treemap.NewWithStringComparator()}
}

// IDFor adds a naming rule for a type, replacing an existing rule for it.
func (d *Declarative) IDFor(typeName string, f NamingFunc) *Declarative {
	d.rules.Put(typeName, f)
	return d
}

// SetTopLevel is part of interface Delegating.
func (d *Declarative) SetTopLevel(p Provider) {
	if p == Provider(d) {
		p = nil
	}
	d.topLevel = p
}

func (d *Declarative) top() Provider {
	if d.topLevel == nil {
		return d
	}
	return d.topLevel
}

// rule finds the naming function for n, or nil.
func (d *Declarative) rule(n *model.Node) (string, NamingFunc) {
	var applicable []*meta.Type
	for _, k := range d.rules.Keys() { // lexicographic order
		name := k.(string)
		for _, t := range n.Type().Chain() {
			if t.Name == name {
				applicable = append(applicable, t)
				break
			}
		}
	}
	for _, t := range applicable {
		specific := true
		for _, u := range applicable {
			if u != t && u.IsSubtypeOf(t.Name) {
				specific = false
				break
			}
		}
		if specific {
			f, _ := d.rules.Get(t.Name)
			return t.Name, f.(NamingFunc)
		}
	}
	return "", nil
}

// HasSemanticIdentity is a predicate: does a rule apply to n?
func (d *Declarative) HasSemanticIdentity(n *model.Node) bool {
	_, f := d.rule(n)
	return f != nil
}

// ID is part of interface Provider. It is an error to ask for the ID of a node
// without an applicable rule.
func (d *Declarative) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	name, f := d.rule(n)
	if f == nil {
		return "", nodeError(n, fmt.Errorf("%w: no rule for node type %s", ErrIDGeneration, n.Type().Name))
	}
	id, err := f(n, d.top())
	if err != nil {
		return "", nodeError(n, fmt.Errorf("%w: rule for %s: %w", ErrIDGeneration, name, err))
	}
	return id, nil
}

// Common uses semantic IDs where a declarative rule applies, and structural
// IDs for all other nodes.
type Common struct {
	Semantic   *Declarative
	Positional *Structural
}

// NewCommon combines a declarative provider with a structural one. If
// positional is nil, structural IDs get their source IDs from node origins.
func NewCommon(semantic *Declarative, positional *Structural) *Common {
	if semantic == nil {
		semantic = NewDeclarative()
	}
	if positional == nil {
		positional = &Structural{}
	}
	c := &Common{Semantic: semantic, Positional: positional}
	c.SetTopLevel(c)
	return c
}

// SetTopLevel is part of interface Delegating.
func (c *Common) SetTopLevel(p Provider) {
	c.Semantic.SetTopLevel(p)
	c.Positional.SetTopLevel(p)
}

// ID is part of interface Provider.
func (c *Common) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	if c.Semantic.HasSemanticIdentity(n) {
		return c.Semantic.ID(n)
	}
	return c.Positional.ID(n)
}
