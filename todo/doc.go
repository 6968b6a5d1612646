/*
Package todo implements a small example language for to-do lists, showing
the complete pipeline from text to a resolved AST:

	project "My errands list" {
	    todo milk "Buy milk"
	    todo garbage "Take the garbage out" after milk
	    todo walk
	}

Input is scanned with a lexmachine scanner and parsed by a recursive descent
parser into a parse tree (package cst). Parse trees are transformed into ASTs
of the todo language (package transform), and prerequisite references are
resolved against the todos of the same project (package resolve).

Parsing recovers from syntax errors at the next todo entry. Entries which
failed to parse are kept as parse tree nodes carrying an error, and end up as
placeholder nodes in the AST.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package todo

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.todo'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.todo")
}
