package transform

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/schuko"
)

// Option configures a transformer.
type Option func(*Transformer)

// Strict makes rule failures errors instead of Failing placeholders.
// Strict implies StrictUnmapped.
func Strict() Option {
	return func(t *Transformer) {
		t.strict = true
		t.strictUnmapped = true
	}
}

// StrictUnmapped makes source values without a rule (and without a default
// transformation) an error instead of a Missing placeholder.
func StrictUnmapped() Option {
	return func(t *Transformer) {
		t.strictUnmapped = true
	}
}

// WithDefault sets a transformation for source values without a rule.
func WithDefault(f DefaultFunc) Option {
	return func(t *Transformer) {
		t.deflt = f
	}
}

// WithHierarchy declares super-types for type tags of source values.
func WithHierarchy(h Hierarchy) Option {
	return func(t *Transformer) {
		for tag, supers := range h {
			t.hierarchy[tag] = append(t.hierarchy[tag], supers...)
		}
	}
}

// NegativeCacheSize sets the number of (rule, feature) pairs remembered as
// having no child rule.
func NegativeCacheSize(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.cacheSize = n
		}
	}
}

// Configuration keys read by FromConfig.
const (
	ConfStrict         = "transform.strict"
	ConfStrictUnmapped = "transform.strict-unmapped"
	ConfCacheSize      = "transform.cache-size"
)

// FromConfig reads options from a configuration. Keys not set in conf leave
// the defaults untouched.
func FromConfig(conf schuko.Configuration) Option {
	return func(t *Transformer) {
		if conf == nil {
			return
		}
		if conf.IsSet(ConfStrict) && conf.GetBool(ConfStrict) {
			Strict()(t)
		}
		if conf.IsSet(ConfStrictUnmapped) && conf.GetBool(ConfStrictUnmapped) {
			t.strictUnmapped = true
		}
		if conf.IsSet(ConfCacheSize) {
			NegativeCacheSize(conf.GetInt(ConfCacheSize))(t)
		}
	}
}
