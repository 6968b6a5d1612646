/*
Command arbor is a command line tool for the arbor toolkit, working with
files of the todo example language.

	arbor parse errands.todo              show the parse tree and issues
	arbor export errands.todo -o e.json   transform and export as a graph chunk
	arbor import e.json                   import a chunk and show the AST
	arbor validate e.json                 check chunks against the JSON schema
	arbor language                        print the todo language description
	arbor serve                           run a model repository
	arbor ids --count 10                  get fresh IDs from a repository
	arbor repl                            interactive mode

Configuration is read from defaults, an optional TOML file (arbor.toml),
environment variables prefixed with ARBOR_ and command line flags, in
increasing order of priority. Trace levels are configured per tracer key with
keys of the form "tracelevel.arbor.todo".

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'arbor.cli'
func tracer() tracing.Trace {
	return tracing.Select("arbor.cli")
}
