package convert

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/npillmayer/arbor/bimap"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/schuko"
)

// Errors of the converter.
var (
	ErrInternalShell       = errors.New("no graph node allocated for AST node")
	ErrUnknownType         = errors.New("type not known to converter")
	ErrUnresolvedReference = errors.New("unable to resolve node")
	ErrInvalidGraph        = errors.New("graph does not fit language")
)

// NodeResolver finds AST nodes outside of the trees known to a converter.
// Resolve returns nil for unknown IDs.
type NodeResolver interface {
	Resolve(id string) (*model.Node, error)
}

// ResolverFunc is an adapter to use a function as a NodeResolver.
type ResolverFunc func(id string) (*model.Node, error)

// Resolve is part of interface NodeResolver.
func (f ResolverFunc) Resolve(id string) (*model.Node, error) {
	return f(id)
}

// Converter converts between ASTs and generic graphs. It may be shared between
// goroutines; conversions are serialized.
type Converter struct {
	mx            sync.RWMutex // guards the type mappings
	run           sync.Mutex   // held during a conversion
	classifiers   map[*meta.Type]graph.Classifier
	types         map[graph.Classifier]*meta.Type
	languages     map[*meta.Type]*meta.Registry
	generic       *meta.Type
	codecs        *Codecs
	provider      ids.Provider
	nodes         *bimap.WeakBiMap[model.Node, graph.Node]
	resolver      NodeResolver
	resolved      *lru.Cache[string, *model.Node]
	cacheSize     int
	ignoreMissing bool
}

// Option configures a converter.
type Option func(*Converter)

// WithIDProvider sets the policy for IDs of exported nodes. The default is
// ids.NewStructural with source ID "root".
func WithIDProvider(p ids.Provider) Option {
	return func(c *Converter) {
		c.provider = p
	}
}

// WithCodecs sets the codecs for attribute values.
func WithCodecs(cs *Codecs) Option {
	return func(c *Converter) {
		c.codecs = cs
	}
}

// WithResolver sets a resolver for nodes not known to the converter.
func WithResolver(r NodeResolver) Option {
	return func(c *Converter) {
		c.resolver = r
	}
}

// IgnoreMissing makes import drop origin and destination links to nodes which
// cannot be resolved, instead of failing.
func IgnoreMissing(ignore bool) Option {
	return func(c *Converter) {
		c.ignoreMissing = ignore
	}
}

// ResolverCacheSize sets the number of nodes from the external resolver to
// remember.
func ResolverCacheSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// Configuration keys read by FromConfig.
const (
	ConfIgnoreMissing = "convert.ignore-missing"
	ConfCacheSize     = "convert.cache-size"
)

// FromConfig reads options from a configuration.
func FromConfig(conf schuko.Configuration) Option {
	return func(c *Converter) {
		if conf == nil {
			return
		}
		if conf.IsSet(ConfIgnoreMissing) {
			c.ignoreMissing = conf.GetBool(ConfIgnoreMissing)
		}
		if conf.IsSet(ConfCacheSize) {
			ResolverCacheSize(conf.GetInt(ConfCacheSize))(c)
		}
	}
}

// New creates a converter for a set of languages. Languages included by other
// languages should be given first, so their types keep their own language in
// classifiers.
func New(languages []*meta.Registry, opts ...Option) *Converter {
	c := &Converter{
		classifiers: make(map[*meta.Type]graph.Classifier),
		types:       make(map[graph.Classifier]*meta.Type),
		languages:   make(map[*meta.Type]*meta.Registry),
		nodes:       bimap.New[model.Node, graph.Node](),
		cacheSize:   256,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codecs == nil {
		c.codecs = NewCodecs()
	}
	if c.provider == nil {
		c.provider = ids.NewStructural("root")
	}
	cache, err := lru.New[string, *model.Node](c.cacheSize)
	if err != nil {
		panic(err)
	}
	c.resolved = cache
	for _, reg := range languages {
		c.Register(reg)
	}
	return c
}

// Register makes the types of a language known to the converter.
func (c *Converter) Register(reg *meta.Registry) {
	c.mx.Lock()
	defer c.mx.Unlock()
	for _, t := range reg.Types() {
		if _, known := c.classifiers[t]; known {
			continue
		}
		cl := graph.Classifier{Language: reg.Name(), Name: t.Name}
		if t.Name == meta.GenericNodeType {
			cl = GenericClassifier
			if c.generic == nil {
				c.generic = t
			}
		}
		c.classifiers[t] = cl
		c.languages[t] = reg
		if _, known := c.types[cl]; !known {
			c.types[cl] = t
		}
	}
	tracer().Debugf("converter knows language %s", reg.Name())
}

// GenericClassifier is the classifier of generic AST nodes.
var GenericClassifier = graph.Classifier{Language: graph.BuiltinLanguage, Name: "GenericNode"}

// Classifier returns the classifier for an AST node type.
func (c *Converter) Classifier(t *meta.Type) (graph.Classifier, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()
	cl, ok := c.classifiers[t]
	return cl, ok
}

// Type returns the AST node type for a classifier.
func (c *Converter) Type(cl graph.Classifier) (*meta.Type, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()
	t, ok := c.types[cl]
	return t, ok
}

func (c *Converter) enum(t *meta.Type, f *meta.Feature) *meta.Enum {
	c.mx.RLock()
	reg := c.languages[t]
	c.mx.RUnlock()
	if reg == nil {
		return nil
	}
	return reg.Enum(f.Type)
}

// GraphNode returns the graph node associated with an AST node, or nil.
func (c *Converter) GraphNode(n *model.Node) *graph.Node {
	return c.nodes.ByA(n)
}

// ASTNode returns the AST node associated with a graph node, or nil.
func (c *Converter) ASTNode(g *graph.Node) *model.Node {
	return c.nodes.ByB(g)
}

// Associations returns the number of live pairings of AST and graph nodes.
func (c *Converter) Associations() int {
	return c.nodes.Size()
}

// Forget drops all pairings of AST and graph nodes.
func (c *Converter) Forget() {
	c.nodes.Clear()
	c.resolved.Purge()
}
