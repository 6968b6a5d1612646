/*
Package convert converts ASTs to generic graphs (see package graph) and back.

A Converter knows a set of languages (type registries of package meta) and maps
every AST node type to a graph classifier. Export assigns missing IDs to AST
nodes and produces a graph node for every AST node of a tree; import does the
reverse. The converter remembers which AST node corresponds to which graph
node, as long as both are alive: the pairing is held in a weak bidirectional
map and disappears once either side is garbage collected.

References between nodes are exported by ID. Importing a tree first builds all
nodes and then populates the references, looking up targets among the nodes
known to the converter and, failing that, asking an external NodeResolver.

Origins and destinations of AST nodes are exported as references to the IDs of
the nodes involved, placeholder origins as annotations.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package convert

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.convert'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.convert")
}
