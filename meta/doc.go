/*
Package meta holds type descriptors for AST node types.

Nodes of an AST are homogeneous in memory (see package model), but every node
carries a type descriptor. A descriptor lists the features a node of this type
has, in a fixed order:

■ attributes, holding primitive values or enumeration literals,

■ containments, holding child nodes which are exclusively owned by their container,

■ references, holding non-owning pointers to other nodes, usually resolved by name.

Every feature is either single-valued or many-valued. Attributes are always
single-valued.

Types form a hierarchy. A type may extend any number of super-types and inherits
all their features. Inherited features come first, followed by the type's own
features. The order is fixed once the descriptor is built and every feature gets
an index into this order, which clients may use to access node values quickly.

Descriptors are collected in registries, which correspond to languages.
Registries are assembled with a Builder:

    b := meta.NewBuilder("todo")
    b.Type("TodoProject").Root().Contains("todos", "Todo", true).End()
    b.Type("Todo").Attr("name", meta.String).Ref("prerequisite", "Todo", false).End()
    reg, err := b.Registry()

Alternatively, languages may be read from YAML with LoadYAML.
Once built, registries and descriptors are immutable and may be shared between
goroutines.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package meta

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.meta'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.meta")
}
