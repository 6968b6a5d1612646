/*
Package cst implements concrete syntax trees, i.e. parse trees, as produced by
hand-written parsers.

Parse tree nodes carry a tag naming the grammar rule (or token category) they
stem from, a span of input bytes and a line/column position. They are
suitable as source trees for package transform: nodes report their tag as
type tag, nodes covering input the parser could not make sense of report a
parse error, and every node is an origin for the AST nodes derived from it.

A lexmachine adapter is provided to create scanners with positions.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cst

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.cst'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.cst")
}
