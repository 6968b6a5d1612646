/*
Package bimap implements a weak, identity-based bidirectional map.

A WeakBiMap associates pointers of one type with pointers of another type,
one to one. Neither side is kept alive by the map: once either side of a pairing
becomes unreachable, the pairing is removed from the map. Keys are compared by
identity, never by value.

The map is used to keep track of which AST node corresponds to which graph
node during conversions, without forcing either representation to stay in
memory just because they have once been converted.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package bimap

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.bimap'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.bimap")
}
