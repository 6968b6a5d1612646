package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/npillmayer/schuko"
	"github.com/spf13/pflag"
)

// tracers lists the tracer keys of the toolkit.
var tracers = []string{
	"arbor.model", "arbor.meta", "arbor.ids", "arbor.bimap", "arbor.transform",
	"arbor.graph", "arbor.convert", "arbor.resolve", "arbor.cst", "arbor.todo",
	"arbor.repo", "arbor.cli",
}

func defaults() map[string]interface{} {
	d := map[string]interface{}{
		"tracing.adapter":        "go",
		"tracelevel.root":        "Error",
		"interactive":            false,
		"transform.strict":       false,
		"convert.ignore-missing": false,
		"convert.cache-size":     256,
		"repo.url":               "http://localhost:7070",
		"repo.id-prefix":         "r-",
		"serve.addr":             ":7070",
	}
	for _, key := range tracers {
		d["tracelevel."+key] = "Error"
	}
	return d
}

// konfig adapts a koanf instance to schuko.Configuration.
type konfig struct {
	k *koanf.Koanf
}

var _ schuko.Configuration = (*konfig)(nil)

// loadConfig loads configuration from defaults, config file, environment
// variables and flags. Flags take precedence over environment variables,
// which take precedence over the config file.
func loadConfig(filename string, flags *pflag.FlagSet) (*konfig, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if filename != "" {
		err := k.Load(file.Provider(filename), toml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", filename, err)
		}
	}
	// ARBOR_CONVERT_IGNORE__MISSING=true sets convert.ignore-missing
	if err := k.Load(env.Provider("ARBOR_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "ARBOR_"))
		return strings.ReplaceAll(strings.ReplaceAll(s, "__", "-"), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	return &konfig{k: k}, nil
}

// mapProvider uses a map with flat keys as a koanf provider.
type mapProvider map[string]interface{}

func (p mapProvider) Read() (map[string]interface{}, error) {
	return maps.Unflatten(p, "."), nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}

// InitDefaults is part of schuko.Configuration. Defaults are loaded by
// loadConfig.
func (c *konfig) InitDefaults() {}

func (c *konfig) IsSet(key string) bool {
	return c.k.Exists(key)
}

func (c *konfig) IsInteractive() bool {
	return c.k.Bool("interactive")
}

func (c *konfig) GetString(key string) string {
	return c.k.String(key)
}

func (c *konfig) GetInt(key string) int {
	return c.k.Int(key)
}

func (c *konfig) GetBool(key string) bool {
	return c.k.Bool(key)
}

// Set overrides a configuration value.
func (c *konfig) Set(key string, value interface{}) {
	_ = c.k.Set(key, value)
}
