/*
Package repo implements a small model repository: an HTTP server storing
serialized ASTs as graph chunks, and a client for it.

Chunks are stored under the ID of their root node. Every node of a stored
chunk is indexed, so that nodes may be retrieved by ID, e.g. by a converter
resolving origins of transpiled ASTs. The server also hands out batches of
fresh node IDs, and serves Prometheus metrics.

	GET    /ids?count=n      fresh node IDs
	GET    /chunks           IDs of stored chunks
	PUT    /chunks/{id}      store a chunk (JSON graph format)
	GET    /chunks/{id}      retrieve a chunk
	DELETE /chunks/{id}      delete a chunk
	GET    /nodes/{id}       retrieve the chunk containing a node
	GET    /metrics          Prometheus metrics

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package repo

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'arbor.repo'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.repo")
}
