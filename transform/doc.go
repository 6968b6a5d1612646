/*
Package transform implements tools for tree-to-tree transformation and
construction of abstract syntax trees.

A Transformer turns an arbitrary source tree, e.g. a parse tree or another AST,
into an AST of model.Node instances. For every type of source value, clients
register a Rule with a factory creating output nodes. Rules declare how to
obtain the values of the output's features from the source (see
Rule.WithChild); the transformer will recursively transform these values and
assign them to the output.

Source values are dispatched on type tags instead of run-time reflection.
AST nodes use their type chain from package meta. Other values may implement
Tagged or TypeTagged; as a last resort, the Go type name is used. Rules for a
super-type apply to all subtypes without a rule of their own.

Transformation is fault tolerant by default: a source value without a rule
is replaced by a placeholder node with origin Missing, and a rule failing
with an error results in a placeholder with origin Failing. Issues are
collected in the transformation Context. Strict modes turn these conditions
into errors.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package transform

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'arbor.transform'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.transform")
}
