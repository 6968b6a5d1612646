package convert

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/npillmayer/arbor/meta"
)

// ErrCodec is returned if an attribute value cannot be serialized or
// deserialized.
var ErrCodec = errors.New("cannot convert attribute value")

// Codec serializes values of a primitive type to strings and back.
type Codec struct {
	Encode func(v interface{}) (string, error)
	Decode func(s string) (interface{}, error)
}

// Codecs is a registry of codecs, keyed by type name. Enumeration values are
// handled without a codec: they are serialized as their literal.
type Codecs struct {
	mx     sync.RWMutex
	byType map[string]Codec
}

// NewCodecs creates a codec registry knowing the primitive types of package meta.
func NewCodecs() *Codecs {
	cs := &Codecs{byType: make(map[string]Codec)}
	cs.Register(meta.String, Codec{
		Encode: func(v interface{}) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("%w: %T is not a string", ErrCodec, v)
			}
			return s, nil
		},
		Decode: func(s string) (interface{}, error) { return s, nil },
	})
	cs.Register(meta.Int, Codec{
		Encode: func(v interface{}) (string, error) {
			switch i := v.(type) {
			case int:
				return strconv.Itoa(i), nil
			case int64:
				return strconv.FormatInt(i, 10), nil
			case int32:
				return strconv.FormatInt(int64(i), 10), nil
			}
			return "", fmt.Errorf("%w: %T is not an int", ErrCodec, v)
		},
		Decode: func(s string) (interface{}, error) {
			i, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCodec, err)
			}
			return i, nil
		},
	})
	cs.Register(meta.Bool, Codec{
		Encode: func(v interface{}) (string, error) {
			b, ok := v.(bool)
			if !ok {
				return "", fmt.Errorf("%w: %T is not a bool", ErrCodec, v)
			}
			return strconv.FormatBool(b), nil
		},
		Decode: func(s string) (interface{}, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCodec, err)
			}
			return b, nil
		},
	})
	cs.Register(meta.Float, Codec{
		Encode: func(v interface{}) (string, error) {
			switch f := v.(type) {
			case float64:
				return strconv.FormatFloat(f, 'g', -1, 64), nil
			case float32:
				return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
			}
			return "", fmt.Errorf("%w: %T is not a float", ErrCodec, v)
		},
		Decode: func(s string) (interface{}, error) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCodec, err)
			}
			return f, nil
		},
	})
	return cs
}

// Register adds or replaces the codec for a type.
func (cs *Codecs) Register(typeName string, c Codec) {
	cs.mx.Lock()
	defer cs.mx.Unlock()
	cs.byType[typeName] = c
}

// Codec returns the codec for a type.
func (cs *Codecs) Codec(typeName string) (Codec, bool) {
	cs.mx.RLock()
	defer cs.mx.RUnlock()
	c, ok := cs.byType[typeName]
	return c, ok
}

// encode serializes the value of attribute f. Enumeration literals are
// checked against enum.
func (cs *Codecs) encode(f *meta.Feature, enum *meta.Enum, v interface{}) (string, error) {
	if enum != nil {
		lit, ok := v.(string)
		if !ok || enum.Index(lit) < 0 {
			return "", fmt.Errorf("%w: %v is not a literal of %s", ErrCodec, v, enum.Name)
		}
		return lit, nil
	}
	c, ok := cs.Codec(f.Type)
	if !ok {
		return "", fmt.Errorf("%w: no codec for type %s of %s", ErrCodec, f.Type, f.Name)
	}
	return c.Encode(v)
}

func (cs *Codecs) decode(f *meta.Feature, enum *meta.Enum, s string) (interface{}, error) {
	if enum != nil {
		if enum.Index(s) < 0 {
			return nil, fmt.Errorf("%w: %q is not a literal of %s", ErrCodec, s, enum.Name)
		}
		return s, nil
	}
	c, ok := cs.Codec(f.Type)
	if !ok {
		return nil, fmt.Errorf("%w: no codec for type %s of %s", ErrCodec, f.Type, f.Name)
	}
	return c.Decode(s)
}
