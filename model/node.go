package model

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/meta"
)

// Errors for violated node invariants.
var (
	ErrIDFinal    = errors.New("node already has a different ID")
	ErrSelfParent = errors.New("node cannot be its own parent")
	ErrSelfOrigin = errors.New("node cannot be its own origin")
	ErrCycle      = errors.New("containment cycle")
)

// Node is a vertex of an AST.
type Node struct {
	typ         *meta.Type
	id          string
	parent      *Node
	position    *arbor.Position
	origin      Origin
	destination Destination
	values      []interface{} // indexed by feature index
}

// New creates a node of a given type, with all features unset.
// New panics if t is nil or abstract.
func New(t *meta.Type) *Node {
	if t == nil {
		panic("cannot create a node without a type")
	}
	if t.Abstract {
		panic(fmt.Sprintf("cannot instantiate abstract type %s", t.Name))
	}
	return &Node{
		typ:    t,
		values: make([]interface{}, len(t.Features())),
	}
}

// Type returns the type descriptor of n.
func (n *Node) Type() *meta.Type {
	return n.typ
}

// ID returns the ID of n, or the empty string.
func (n *Node) ID() string {
	return n.id
}

// HasID is a predicate: has an ID been assigned to n?
func (n *Node) HasID() bool {
	return n.id != ""
}

// SetID sets the ID of n. IDs are final; setting a different ID for a node
// which already has one is an error, setting the same ID again is not.
func (n *Node) SetID(id string) error {
	if n.id != "" && n.id != id {
		return fmt.Errorf("%w: %s cannot be changed to %q", ErrIDFinal, n, id)
	}
	n.id = id
	return nil
}

// Parent returns the parent of n, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// SetParent sets the parent back link of n.
func (n *Node) SetParent(p *Node) error {
	if p == n {
		return fmt.Errorf("%w: %s", ErrSelfParent, n)
	}
	n.parent = p
	return nil
}

// Position returns the source position of n. If no position has been set
// explicitly, the origin's position is returned.
func (n *Node) Position() *arbor.Position {
	if n.position != nil {
		return n.position
	}
	if n.origin != nil {
		return n.origin.Position()
	}
	return nil
}

// SetPosition sets an explicit source position.
func (n *Node) SetPosition(pos *arbor.Position) {
	n.position = pos
}

// SourceText returns the source text of n's origin, if any.
func (n *Node) SourceText() string {
	if n.origin == nil {
		return ""
	}
	return n.origin.SourceText()
}

// Origin returns what n has been derived from, or nil.
func (n *Node) Origin() Origin {
	return n.origin
}

// SetOrigin sets the origin of n.
func (n *Node) SetOrigin(o Origin) error {
	if on, ok := o.(*Node); ok && on == n {
		return fmt.Errorf("%w: %s", ErrSelfOrigin, n)
	}
	n.origin = o
	return nil
}

// Destination returns what n has been mapped to, or nil.
func (n *Node) Destination() Destination {
	return n.destination
}

// SetDestination sets the destination of n.
func (n *Node) SetDestination(d Destination) {
	n.destination = d
}

func (n *Node) isDestination() {}

// --- Feature values --------------------------------------------------------

// lookup maps a feature, possibly taken from a super-type, to the feature of n's type.
func (n *Node) lookup(f *meta.Feature) *meta.Feature {
	ff := n.typ.Features()
	if i := f.Index(); i < len(ff) && ff[i] == f {
		return f
	}
	if own := n.typ.Feature(f.Name); own != nil {
		return own
	}
	panic(fmt.Sprintf("type %s has no feature %s", n.typ.Name, f.Name))
}

func (n *Node) mustFeature(name string) *meta.Feature {
	f := n.typ.Feature(name)
	if f == nil {
		panic(fmt.Sprintf("type %s has no feature %s", n.typ.Name, name))
	}
	return f
}

// Value returns the value of a feature.
func (n *Node) Value(f *meta.Feature) interface{} {
	return n.values[n.lookup(f).Index()]
}

// SetValue sets the value of a feature. The value must fit the feature's kind
// and multiplicity, otherwise SetValue panics.
func (n *Node) SetValue(f *meta.Feature, v interface{}) {
	f = n.lookup(f)
	checkValue(n, f, v)
	n.values[f.Index()] = v
}

// Get returns the value of the feature with a given name. It panics if n's
// type has no such feature.
func (n *Node) Get(name string) interface{} {
	return n.values[n.mustFeature(name).Index()]
}

// Set sets the value of the feature with a given name.
func (n *Node) Set(name string, v interface{}) *Node {
	n.SetValue(n.mustFeature(name), v)
	return n
}

// IsSet is a predicate: does the named feature hold a non-empty value?
func (n *Node) IsSet(name string) bool {
	switch v := n.Get(name).(type) {
	case nil:
		return false
	case *Node:
		return v != nil
	case []*Node:
		return len(v) > 0
	case *ReferenceByName:
		return v != nil
	case []*ReferenceByName:
		return len(v) > 0
	}
	return true
}

// Child returns the value of a single-valued containment.
func (n *Node) Child(name string) *Node {
	c, _ := n.Get(name).(*Node)
	return c
}

// ChildList returns the value of a many-valued containment.
func (n *Node) ChildList(name string) []*Node {
	cc, _ := n.Get(name).([]*Node)
	return cc
}

// Add appends children to a many-valued containment.
func (n *Node) Add(name string, children ...*Node) *Node {
	f := n.mustFeature(name)
	cc, _ := n.values[f.Index()].([]*Node)
	n.SetValue(f, append(cc, children...))
	return n
}

// Ref returns the value of a single-valued reference.
func (n *Node) Ref(name string) *ReferenceByName {
	r, _ := n.Get(name).(*ReferenceByName)
	return r
}

// RefList returns the value of a many-valued reference.
func (n *Node) RefList(name string) []*ReferenceByName {
	rr, _ := n.Get(name).([]*ReferenceByName)
	return rr
}

// Children returns all direct children of n, in feature order.
func (n *Node) Children() []*Node {
	var children []*Node
	for _, f := range n.typ.Features() {
		if f.Kind != meta.Containment {
			continue
		}
		switch c := n.values[f.Index()].(type) {
		case *Node:
			if c != nil {
				children = append(children, c)
			}
		case []*Node:
			for _, x := range c {
				if x != nil {
					children = append(children, x)
				}
			}
		}
	}
	return children
}

// ContainingFeature returns the containment feature of n's parent which holds
// n, together with n's index in it. If n has no parent or is not found among
// its parent's children, ok is false.
func (n *Node) ContainingFeature() (f *meta.Feature, index int, ok bool) {
	if n.parent == nil {
		return nil, 0, false
	}
	for _, f := range n.parent.typ.Containments() {
		switch c := n.parent.values[f.Index()].(type) {
		case *Node:
			if c == n {
				return f, 0, true
			}
		case []*Node:
			for i, x := range c {
				if x == n {
					return f, i, true
				}
			}
		}
	}
	return nil, 0, false
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.id != "" {
		return fmt.Sprintf("%s#%s", n.typ.Name, n.id)
	}
	return fmt.Sprintf("%s@%p", n.typ.Name, n)
}

func checkValue(n *Node, f *meta.Feature, v interface{}) {
	if v == nil {
		return
	}
	ok := true
	switch f.Kind {
	case meta.Attribute:
		switch v.(type) {
		case *Node, []*Node, *ReferenceByName, []*ReferenceByName:
			ok = false
		}
	case meta.Containment:
		if f.Many {
			_, ok = v.([]*Node)
		} else {
			_, ok = v.(*Node)
		}
	case meta.Reference:
		if f.Many {
			_, ok = v.([]*ReferenceByName)
		} else {
			_, ok = v.(*ReferenceByName)
		}
	}
	if !ok {
		panic(fmt.Sprintf("value of type %T does not fit %s of %s", v, f, n.typ.Name))
	}
}
