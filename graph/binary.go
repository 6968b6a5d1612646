package graph

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/pierrec/lz4/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Binary chunks start with a mode byte, followed by the little-endian length
// of the uncompressed payload. The payload is a protobuf Struct mirroring the
// JSON form of a chunk.
const (
	modeRaw    byte = 'R'
	modeLZ4    byte = 'L'
	headerSize      = 5
)

// MaxPayloadSize limits the uncompressed payload of a binary chunk.
const MaxPayloadSize = 64 << 20

// lz4 blocks expand by a factor of at most 255.
const maxLZ4Ratio = 255

// EncodeBinary serializes the trees rooted at roots in compact binary form.
func EncodeBinary(roots ...*Node) ([]byte, error) {
	s, err := toStruct(toChunk(roots))
	if err != nil {
		return nil, err
	}
	payload, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, headerSize+lz4.CompressBlockBound(len(payload)))
	binary.LittleEndian.PutUint32(buf[1:headerSize], uint32(len(payload)))
	written, err := lz4.CompressBlock(payload, buf[headerSize:], nil)
	if err != nil || written == 0 || written >= len(payload) {
		// incompressible
		buf[0] = modeRaw
		return append(buf[:headerSize], payload...), nil
	}
	buf[0] = modeLZ4
	tracer().Debugf("binary chunk: %d bytes payload, %d bytes compressed", len(payload), written)
	return buf[:headerSize+written], nil
}

// DecodeBinary reads a chunk in binary form and returns the roots of the trees
// it contains.
func DecodeBinary(data []byte) ([]*Node, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: binary chunk too short", ErrFormat)
	}
	size := int(binary.LittleEndian.Uint32(data[1:headerSize]))
	var payload []byte
	switch data[0] {
	case modeRaw:
		payload = data[headerSize:]
		if len(payload) != size {
			return nil, fmt.Errorf("%w: expected %d bytes of payload, have %d", ErrFormat, size, len(payload))
		}
	case modeLZ4:
		if size > MaxPayloadSize || size > maxLZ4Ratio*(len(data)-headerSize) {
			return nil, fmt.Errorf("%w: implausible payload size %d for %d bytes of input", ErrFormat, size, len(data))
		}
		payload = make([]byte, size)
		n, err := lz4.UncompressBlock(data[headerSize:], payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: expected %d bytes of payload, have %d", ErrFormat, size, n)
		}
	default:
		return nil, fmt.Errorf("%w: unknown binary mode %q", ErrFormat, data[0])
	}
	s := &structpb.Struct{}
	if err := proto.Unmarshal(payload, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	c, err := fromStruct(s)
	if err != nil {
		return nil, err
	}
	return fromChunk(c)
}

func toStruct(c *chunk) (*structpb.Struct, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct) (*chunk, error) {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	c := &chunk{}
	if err = json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return c, nil
}
