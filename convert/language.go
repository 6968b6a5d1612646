package convert

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/meta"
)

// ExportLanguage describes the types of a registry as a graph language.
// The generic node type is builtin and not part of the description.
func ExportLanguage(reg *meta.Registry, version string) *graph.Language {
	l := &graph.Language{Name: reg.Name(), Version: version}
	for _, t := range reg.Types() {
		if t.Name == meta.GenericNodeType {
			continue
		}
		c := graph.Concept{
			Name:       t.Name,
			Extends:    t.Supertypes,
			Abstract:   t.Abstract,
			Partition:  t.RootCapable,
			MustBeRoot: t.MustBeRoot,
		}
		for _, f := range t.Features() {
			if f.Owner != t.Name {
				continue
			}
			kind := f.Kind.String()
			if f.Kind == meta.Attribute {
				kind = "property"
			}
			c.Features = append(c.Features, graph.FeatureDecl{
				Name:     f.Name,
				Kind:     kind,
				Type:     f.Type,
				Many:     f.Many,
				Optional: f.Optional,
			})
		}
		l.Concepts = append(l.Concepts, c)
	}
	for _, e := range reg.Enums() {
		l.Enums = append(l.Enums, graph.Enumeration{Name: e.Name, Literals: e.Literals})
	}
	return l
}

// ImportLanguage builds a registry from a graph language. Types and enums of
// included registries may be referred to.
func ImportLanguage(l *graph.Language, include ...*meta.Registry) (*meta.Registry, error) {
	b := meta.NewBuilder(l.Name)
	for _, inc := range include {
		b.Include(inc)
	}
	for _, e := range l.Enums {
		b.Enum(e.Name, e.Literals...)
	}
	for _, c := range l.Concepts {
		tb := b.Type(c.Name).Extends(c.Extends...)
		if c.Abstract {
			tb.Abstract()
		}
		if c.MustBeRoot {
			tb.MustBeRoot()
		} else if c.Partition {
			tb.Root()
		}
		for _, f := range c.Features {
			kind, err := meta.ParseKind(f.Kind)
			if err != nil {
				return nil, err
			}
			tb.Feature(f.Name, kind, f.Type, f.Many)
			if f.Optional {
				tb.Opt()
			}
		}
		tb.End()
	}
	return b.Registry()
}
