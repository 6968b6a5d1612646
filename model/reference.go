package model

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import "fmt"

// ReferenceByName is a reference to a node, written in source as a name.
//
// A reference passes through up to three states:
//
//    unresolved:            only Name is known
//    resolved:              Identifier (the target's ID) is known
//    retrieved:             the target node itself is known
//
// A reference may be resolved without being retrieved, e.g. after import of a
// graph where the target lives outside the imported subtree.
type ReferenceByName struct {
	Name       string
	Identifier string
	Referred   *Node
}

// RefTo creates an unresolved reference.
func RefTo(name string) *ReferenceByName {
	return &ReferenceByName{Name: name}
}

// Resolved is a predicate: is the target's identity known?
func (r *ReferenceByName) Resolved() bool {
	return r.Identifier != "" || r.Referred != nil
}

// Retrieved is a predicate: is the target node known?
func (r *ReferenceByName) Retrieved() bool {
	return r.Referred != nil
}

// SetReferred links the reference to its target.
func (r *ReferenceByName) SetReferred(n *Node) {
	r.Referred = n
	if n != nil && n.HasID() {
		r.Identifier = n.ID()
	}
}

// TargetID returns the ID of the target, if known.
func (r *ReferenceByName) TargetID() string {
	if r.Referred != nil && r.Referred.HasID() {
		return r.Referred.ID()
	}
	return r.Identifier
}

func (r *ReferenceByName) String() string {
	switch {
	case r.Retrieved():
		return fmt.Sprintf("ref(%s→%s)", r.Name, r.Referred)
	case r.Resolved():
		return fmt.Sprintf("ref(%s→#%s)", r.Name, r.Identifier)
	}
	return fmt.Sprintf("ref(%s)", r.Name)
}
