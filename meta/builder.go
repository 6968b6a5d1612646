package meta

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
)

// Builder is used to assemble a registry. Clients create type definitions
// with method chains, starting with Type and ending with End:
//
//    b.Type("Todo").Extends("Named").Attr("description", meta.String).End()
//
// Errors are collected and reported by Registry().
type Builder struct {
	name     string
	defs     []*TypeBuilder
	enums    []*Enum
	included []*Registry
	errs     []error
}

// NewBuilder creates a builder for a language.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Include makes all types and enumerations of another registry part of the
// registry under construction. Included types may be used as super-types.
func (b *Builder) Include(reg *Registry) *Builder {
	if reg != nil {
		b.included = append(b.included, reg)
	}
	return b
}

// Enum defines an enumeration type.
func (b *Builder) Enum(name string, literals ...string) *Builder {
	if len(literals) == 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: enum %s has no literals", ErrInvalidDefinition, name))
	}
	b.enums = append(b.enums, &Enum{Name: name, Literals: literals})
	return b
}

// Type starts the definition of a node type.
func (b *Builder) Type(name string) *TypeBuilder {
	tb := &TypeBuilder{b: b, t: &Type{Name: name}}
	return tb
}

// TypeBuilder is a helper for defining a single type.
type TypeBuilder struct {
	b   *Builder
	t   *Type
	own []*Feature
}

// Extends adds direct super-types.
func (tb *TypeBuilder) Extends(supertypes ...string) *TypeBuilder {
	tb.t.Supertypes = append(tb.t.Supertypes, supertypes...)
	return tb
}

// Abstract marks the type as not instantiable.
func (tb *TypeBuilder) Abstract() *TypeBuilder {
	tb.t.Abstract = true
	return tb
}

// Root marks the type as root-capable, i.e. nodes of this type may head a
// subtree of their own.
func (tb *TypeBuilder) Root() *TypeBuilder {
	tb.t.RootCapable = true
	return tb
}

// MustBeRoot marks the type as root-capable and forbids it to be contained.
func (tb *TypeBuilder) MustBeRoot() *TypeBuilder {
	tb.t.RootCapable = true
	tb.t.MustBeRoot = true
	return tb
}

// Attr adds a single-valued attribute of a primitive or enumeration type.
func (tb *TypeBuilder) Attr(name, typ string) *TypeBuilder {
	return tb.feature(name, Attribute, typ, false)
}

// Contains adds a containment feature.
func (tb *TypeBuilder) Contains(name, typ string, many bool) *TypeBuilder {
	return tb.feature(name, Containment, typ, many)
}

// Ref adds a reference feature.
func (tb *TypeBuilder) Ref(name, typ string, many bool) *TypeBuilder {
	return tb.feature(name, Reference, typ, many)
}

// Feature adds a feature of any kind.
func (tb *TypeBuilder) Feature(name string, kind Kind, typ string, many bool) *TypeBuilder {
	return tb.feature(name, kind, typ, many)
}

// Opt marks the most recently added feature as optional.
func (tb *TypeBuilder) Opt() *TypeBuilder {
	if len(tb.own) > 0 {
		tb.own[len(tb.own)-1].Optional = true
	}
	return tb
}

func (tb *TypeBuilder) feature(name string, kind Kind, typ string, many bool) *TypeBuilder {
	if kind == Attribute && many {
		tb.b.errs = append(tb.b.errs, fmt.Errorf("%w: attribute %s.%s may not be many-valued",
			ErrInvalidDefinition, tb.t.Name, name))
	}
	tb.own = append(tb.own, &Feature{
		Name:  name,
		Kind:  kind,
		Many:  many,
		Type:  typ,
		Owner: tb.t.Name,
	})
	return tb
}

// End finishes the type definition.
func (tb *TypeBuilder) End() *Builder {
	tb.b.defs = append(tb.b.defs, tb)
	return tb.b
}

// --- Building --------------------------------------------------------------

// Registry checks all definitions and builds the registry. Errors of all
// definitions are joined.
func (b *Builder) Registry() (*Registry, error) {
	reg := newRegistry(b.name)
	for _, inc := range b.included {
		for _, t := range inc.Types() {
			reg.put(t)
		}
		for _, e := range inc.Enums() {
			reg.enums[e.Name] = e
		}
	}
	errs := append([]error{}, b.errs...)
	for _, e := range b.enums {
		if _, dup := reg.enums[e.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate enum %s", ErrInvalidDefinition, e.Name))
		}
		reg.enums[e.Name] = e
	}
	defs := make(map[string]*TypeBuilder, len(b.defs))
	for _, tb := range b.defs {
		if tb.t.Name == "" {
			errs = append(errs, fmt.Errorf("%w: type without a name", ErrInvalidDefinition))
			continue
		}
		if _, dup := defs[tb.t.Name]; dup || reg.types[tb.t.Name] != nil {
			errs = append(errs, fmt.Errorf("%w: duplicate type %s", ErrInvalidDefinition, tb.t.Name))
			continue
		}
		defs[tb.t.Name] = tb
	}
	state := make(map[string]int) // 1 = in progress, 2 = done
	var complete func(name string) (*Type, error)
	complete = func(name string) (*Type, error) {
		if t, ok := reg.types[name]; ok && state[name] != 1 {
			return t, nil
		}
		tb, ok := defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		if state[name] == 1 {
			return nil, fmt.Errorf("%w: %s", ErrCyclicHierarchy, name)
		}
		state[name] = 1
		t := tb.t
		t.chain = []*Type{t}
		seen := map[string]bool{name: true}
		supers := make([]*Type, 0, len(t.Supertypes))
		for _, sname := range t.Supertypes {
			s, err := complete(sname)
			if err != nil {
				state[name] = 0
				return nil, fmt.Errorf("super-type of %s: %w", name, err)
			}
			supers = append(supers, s)
			for _, a := range s.chain {
				if !seen[a.Name] {
					seen[a.Name] = true
					t.chain = append(t.chain, a)
				}
			}
		}
		if err := t.collectFeatures(supers, tb.own); err != nil {
			state[name] = 0
			return nil, err
		}
		state[name] = 2
		reg.put(t)
		tracer().Debugf("type %s completed with %d features", name, len(t.features))
		return t, nil
	}
	for _, tb := range b.defs {
		if defs[tb.t.Name] != tb {
			continue
		}
		if _, err := complete(tb.t.Name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		errs = append(errs, reg.checkFeatureTypes()...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	tracer().Infof("language %s built with %d types", b.name, len(reg.types))
	return reg, nil
}

// collectFeatures lays out inherited features first, taking the direct
// super-types in declaration order, followed by t's own features.
func (t *Type) collectFeatures(supers []*Type, own []*Feature) error {
	t.byName = make(map[string]*Feature)
	add := func(f *Feature) error {
		if prev, ok := t.byName[f.Name]; ok {
			if prev.Owner == f.Owner {
				return nil // diamond inheritance
			}
			return fmt.Errorf("%w: %s.%s clashes with %s.%s", ErrFeatureConflict,
				f.Owner, f.Name, prev.Owner, prev.Name)
		}
		c := *f
		c.index = len(t.features)
		t.features = append(t.features, &c)
		t.byName[c.Name] = &c
		return nil
	}
	for _, s := range supers {
		for _, f := range s.features {
			if err := add(f); err != nil {
				return err
			}
		}
	}
	for _, f := range own {
		if err := add(f); err != nil {
			return err
		}
	}
	for _, s := range t.chain[1:] {
		if s.RootCapable {
			t.RootCapable = true
		}
		if s.MustBeRoot {
			t.MustBeRoot = true
		}
	}
	return nil
}

func (reg *Registry) checkFeatureTypes() []error {
	var errs []error
	for _, t := range reg.types {
		for _, f := range t.features {
			if f.Owner != t.Name {
				continue
			}
			switch f.Kind {
			case Attribute:
				if !IsPrimitive(f.Type) && reg.enums[f.Type] == nil {
					errs = append(errs, fmt.Errorf("%w: attribute %s.%s of type %s",
						ErrUnknownType, t.Name, f.Name, f.Type))
				}
			default:
				if reg.types[f.Type] == nil {
					errs = append(errs, fmt.Errorf("%w: %s %s.%s of type %s",
						ErrUnknownType, f.Kind, t.Name, f.Name, f.Type))
				}
			}
		}
	}
	return errs
}
