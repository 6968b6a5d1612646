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
	"sync"

	"github.com/emirpasic/gods/sets/treeset"
)

// Errors returned when building registries.
var (
	ErrUnknownType       = errors.New("unknown type")
	ErrCyclicHierarchy   = errors.New("cyclic type hierarchy")
	ErrFeatureConflict   = errors.New("conflicting feature definition")
	ErrInvalidDefinition = errors.New("invalid type definition")
)

// Names of primitive attribute types.
const (
	String = "string"
	Int    = "int"
	Bool   = "bool"
	Float  = "float"
)

// IsPrimitive is a predicate: is name the name of a builtin primitive type?
func IsPrimitive(name string) bool {
	switch name {
	case String, Int, Bool, Float:
		return true
	}
	return false
}

// GenericNodeType is the name of a builtin type without any features. It is part
// of every registry and is used for nodes which do not have a more specific type,
// for example placeholders for abstract expected types.
const GenericNodeType = "arbor.GenericNode"

// --- Features --------------------------------------------------------------

// Kind is the kind of a feature.
type Kind int8

// Kinds of features.
const (
	Attribute Kind = iota
	Containment
	Reference
)

func (k Kind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case Containment:
		return "containment"
	case Reference:
		return "reference"
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "attribute", "property":
		return Attribute, nil
	case "containment":
		return Containment, nil
	case "reference":
		return Reference, nil
	}
	return Attribute, fmt.Errorf("%w: unknown feature kind %q", ErrInvalidDefinition, s)
}

// Feature is a named, typed slot of a node type.
type Feature struct {
	Name     string
	Kind     Kind
	Many     bool
	Type     string // primitive or enum for attributes, node type otherwise
	Optional bool
	Owner    string // name of the declaring type
	index    int
}

// Index is the position of f in the feature list of the type f has been retrieved from.
func (f *Feature) Index() int {
	return f.index
}

// IsAttribute is a predicate.
func (f *Feature) IsAttribute() bool { return f.Kind == Attribute }

// IsContainment is a predicate.
func (f *Feature) IsContainment() bool { return f.Kind == Containment }

// IsReference is a predicate.
func (f *Feature) IsReference() bool { return f.Kind == Reference }

func (f *Feature) String() string {
	m := ""
	if f.Many {
		m = "*"
	}
	return fmt.Sprintf("%s %s: %s%s", f.Kind, f.Name, f.Type, m)
}

// --- Types -----------------------------------------------------------------

// Type is a descriptor for a node type. Types are immutable once their registry
// is built.
type Type struct {
	Name        string
	Supertypes  []string // direct super-types, in declaration order
	Abstract    bool
	RootCapable bool // may head a disconnected subtree
	MustBeRoot  bool // must head a subtree, never contained
	features    []*Feature
	byName      map[string]*Feature
	chain       []*Type
}

// Features returns all features of t, inherited features first.
// Clients must not modify the result.
func (t *Type) Features() []*Feature {
	return t.features
}

// Feature returns the feature with a given name, or nil.
func (t *Type) Feature(name string) *Feature {
	return t.byName[name]
}

// Chain returns t and all of its super-types, most specific first. Direct
// super-types follow in declaration order, each followed by its own ancestors.
// Types reachable on more than one path are listed only once.
func (t *Type) Chain() []*Type {
	return t.chain
}

// ChainNames returns the names of Chain().
func (t *Type) ChainNames() []string {
	names := make([]string, len(t.chain))
	for i, s := range t.chain {
		names[i] = s.Name
	}
	return names
}

// IsSubtypeOf is a predicate: is t equal to or derived from type `name`?
func (t *Type) IsSubtypeOf(name string) bool {
	for _, s := range t.chain {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Attributes returns all attribute features of t.
func (t *Type) Attributes() []*Feature {
	return t.filter(Attribute)
}

// Containments returns all containment features of t.
func (t *Type) Containments() []*Feature {
	return t.filter(Containment)
}

// References returns all reference features of t.
func (t *Type) References() []*Feature {
	return t.filter(Reference)
}

func (t *Type) filter(k Kind) []*Feature {
	var ff []*Feature
	for _, f := range t.features {
		if f.Kind == k {
			ff = append(ff, f)
		}
	}
	return ff
}

func (t *Type) String() string {
	return t.Name
}

// --- Enumerations ----------------------------------------------------------

// Enum is an enumeration type for attributes. Attribute values of enum types
// are the literal strings.
type Enum struct {
	Name     string
	Literals []string
}

// Index returns the position of a literal, or -1.
func (e *Enum) Index(literal string) int {
	for i, l := range e.Literals {
		if l == literal {
			return i
		}
	}
	return -1
}

// --- Registry --------------------------------------------------------------

// Registry is a collection of types and enumerations, usually describing a
// language. Registries are safe for concurrent use.
type Registry struct {
	name  string
	mx    sync.RWMutex
	types map[string]*Type
	enums map[string]*Enum
	names *treeset.Set // sorted type names
}

func newRegistry(name string) *Registry {
	reg := &Registry{
		name:  name,
		types: make(map[string]*Type),
		enums: make(map[string]*Enum),
		names: treeset.NewWithStringComparator(),
	}
	g := &Type{Name: GenericNodeType, RootCapable: true, byName: map[string]*Feature{}}
	g.chain = []*Type{g}
	reg.put(g)
	return reg
}

func (reg *Registry) put(t *Type) {
	reg.types[t.Name] = t
	reg.names.Add(t.Name)
}

// Name returns the name of the language described by reg.
func (reg *Registry) Name() string {
	return reg.name
}

// Type returns the type with a given name, or nil.
func (reg *Registry) Type(name string) *Type {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	return reg.types[name]
}

// MustType returns the type with a given name. It panics if the type is unknown.
func (reg *Registry) MustType(name string) *Type {
	t := reg.Type(name)
	if t == nil {
		panic(fmt.Sprintf("type %q not registered with language %s", name, reg.name))
	}
	return t
}

// Enum returns the enumeration with a given name, or nil.
func (reg *Registry) Enum(name string) *Enum {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	return reg.enums[name]
}

// Types returns all types of reg, sorted by name.
func (reg *Registry) Types() []*Type {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	types := make([]*Type, 0, reg.names.Size())
	for _, n := range reg.names.Values() {
		types = append(types, reg.types[n.(string)])
	}
	return types
}

// Enums returns all enumerations of reg, sorted by name.
func (reg *Registry) Enums() []*Enum {
	reg.mx.RLock()
	defer reg.mx.RUnlock()
	names := treeset.NewWithStringComparator()
	for n := range reg.enums {
		names.Add(n)
	}
	enums := make([]*Enum, 0, names.Size())
	for _, n := range names.Values() {
		enums = append(enums, reg.enums[n.(string)])
	}
	return enums
}

// Subtypes returns all non-abstract types of reg which are subtypes of
// type `name` (including the type itself), sorted by name.
func (reg *Registry) Subtypes(name string) []*Type {
	var subs []*Type
	for _, t := range reg.Types() {
		if !t.Abstract && t.IsSubtypeOf(name) {
			subs = append(subs, t)
		}
	}
	return subs
}
