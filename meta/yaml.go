package meta

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Language definitions in YAML look like this:
//
//    name: todo
//    enums:
//      - name: Priority
//        literals: [low, normal, high]
//    types:
//      - name: TodoProject
//        root: true
//        features:
//          - { name: todos, kind: containment, type: Todo, many: true }
//      - name: Todo
//        extends: [Named]
//        features:
//          - { name: priority, kind: attribute, type: Priority, optional: true }
//          - { name: prerequisite, kind: reference, type: Todo }
type yamlLanguage struct {
	Name  string     `yaml:"name"`
	Enums []yamlEnum `yaml:"enums"`
	Types []yamlType `yaml:"types"`
}

type yamlEnum struct {
	Name     string   `yaml:"name"`
	Literals []string `yaml:"literals"`
}

type yamlType struct {
	Name       string        `yaml:"name"`
	Extends    []string      `yaml:"extends"`
	Abstract   bool          `yaml:"abstract"`
	Root       bool          `yaml:"root"`
	MustBeRoot bool          `yaml:"mustBeRoot"`
	Features   []yamlFeature `yaml:"features"`
}

type yamlFeature struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Type     string `yaml:"type"`
	Many     bool   `yaml:"many"`
	Optional bool   `yaml:"optional"`
}

// LoadYAML reads a language definition and builds a registry from it.
// Additional registries may be given to provide super-types.
func LoadYAML(r io.Reader, include ...*Registry) (*Registry, error) {
	var lang yamlLanguage
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lang); err != nil {
		return nil, fmt.Errorf("reading language definition: %w", err)
	}
	if lang.Name == "" {
		return nil, fmt.Errorf("%w: language definition without a name", ErrInvalidDefinition)
	}
	b := NewBuilder(lang.Name)
	for _, inc := range include {
		b.Include(inc)
	}
	for _, e := range lang.Enums {
		b.Enum(e.Name, e.Literals...)
	}
	for _, yt := range lang.Types {
		tb := b.Type(yt.Name).Extends(yt.Extends...)
		if yt.Abstract {
			tb.Abstract()
		}
		if yt.MustBeRoot {
			tb.MustBeRoot()
		} else if yt.Root {
			tb.Root()
		}
		for _, yf := range yt.Features {
			kind, err := ParseKind(yf.Kind)
			if err != nil {
				return nil, fmt.Errorf("feature %s.%s: %w", yt.Name, yf.Name, err)
			}
			tb.Feature(yf.Name, kind, yf.Type, yf.Many)
			if yf.Optional {
				tb.Opt()
			}
		}
		tb.End()
	}
	return b.Registry()
}
