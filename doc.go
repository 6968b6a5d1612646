/*
Package arbor is a toolbox for building, transforming, identifying and
interchanging abstract syntax trees.

Arbor strives to be a lightweight foundation for language tooling: parsers
deliver concrete syntax trees, arbor turns them into homogeneous ASTs and moves
these ASTs to and from a generic, schema-typed graph representation, suitable
for storing them in a model repository. Package structure is as follows:

■ meta: Package meta holds type descriptors for node types, i.e. their features
and super-types, organized in registries (languages).

■ model: Package model implements the homogeneous AST node, together with
origins, destinations and references by name.

■ ids: Package ids implements policies for assigning stable identifiers to nodes.

■ bimap: Package bimap implements a weak, identity-based bidirectional map.

■ transform: Package transform implements rule-driven tree-to-tree transformation.

■ graph: Package graph implements the generic attributed graph used for interchange.

■ convert: Package convert converts between ASTs and graphs, both ways.

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package arbor
