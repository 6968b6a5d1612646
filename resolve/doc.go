/*
Package resolve resolves references by name.

References of an AST (see model.ReferenceByName) initially know only the name
of their target. Resolving a reference means finding a node with this name
in a scope which is visible from the referencing node.

Scopes hold symbol tables and are organized in a tree; a name not found in a
scope is looked up in its parent scope. Clients tell a Resolver which scope
applies to a reference by registering scope providers per (node type, feature).

    r := resolve.NewResolver()
    r.ScopeFor("Todo", "prerequisite", resolve.Siblings("todos"))
    issues := r.Resolve(root)

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resolve

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.resolve'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.resolve")
}
