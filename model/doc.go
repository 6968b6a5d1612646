/*
Package model implements homogeneous AST nodes.

Every node has a type descriptor (see package meta), and stores one value per
feature of its type. Values are

■ for attributes: a primitive (string, int, bool, float64) or an enum literal string,

■ for single-valued containments: a *Node, for many-valued ones a []*Node,

■ for single-valued references: a *ReferenceByName, for many-valued ones a []*ReferenceByName.

Besides its features, a node carries an optional ID, a back link to its parent,
an optional source position, an origin (what it has been derived from) and a
destination (what it has been mapped to).

IDs are final: once set, an ID will never change. Parent links are not
maintained while features are mutated; they are set by an explicit pass, see
AssignParents. A node is never its own parent, and never its own origin.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package model

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.model'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.model")
}
