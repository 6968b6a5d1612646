/*
Package ids implements policies for assigning identifiers to AST nodes.

Nodes do not need IDs while they live in memory, but storing and exchanging
trees does. A Provider computes an ID for a node, following one of several
policies:

■ Sequential numbers nodes in the order they are first seen.

■ Random assigns a UUID to every node.

■ Structural derives IDs from the position of a node in its tree, starting with a
source ID for the root: the second child in feature "todos" of root "p1" is
called "p1_todos_1".

■ Declarative lets clients name nodes of certain types semantically, e.g. by
their qualified name, and falls back to structural IDs for all other nodes.

■ Batched hands out IDs obtained from an external IDSource, e.g. a model repository.

IDs are final. Every policy returns a node's existing ID, if it has one.
All IDs must match ValidID; an invalid ID is a configuration error and is
never repaired.

Within one conversion, clients wrap their policy in a Cache, which remembers the
IDs computed for each node and validates them.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ids

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.ids'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.ids")
}
