package graph

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ChunkSchema is the JSON schema of serialized chunks.
//
//go:embed chunk.schema.json
var ChunkSchema []byte

// ErrInvalidChunk is returned by ValidateJSON if a chunk does not conform to
// ChunkSchema.
var ErrInvalidChunk = errors.New("chunk does not conform to schema")

// ValidateJSON checks a serialized chunk against ChunkSchema. It does not check
// the consistency of links between nodes, which DecodeJSON does.
func ValidateJSON(data []byte) error {
	schema := gojsonschema.NewBytesLoader(ChunkSchema)
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidChunk, strings.Join(msgs, "; "))
}
