/*
Package graph implements a generic, schema-typed attributed graph for the
interchange of ASTs with other tools and with model repositories.

A graph node has a stable ID and a classifier (a type of some language), and
holds ordered lists of feature values:

■ properties are serialized primitive or enum values, possibly null,

■ containments list child nodes,

■ references list targets, each one with resolve info (the textual name) and
an optional target node.

A target node may be a proxy, i.e. a node of which only the ID is known. Nodes
may carry annotations, which are small property bags with an ID and a
classifier of their own.

Graphs are serialized as flat chunks of nodes, either as JSON (see EncodeJSON)
or in a compact binary form (see EncodeBinary). Languages are described by
Language values, which may be serialized to JSON as well.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package graph

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.graph'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.graph")
}
