package ids

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"weak"

	"github.com/google/uuid"
	"github.com/npillmayer/arbor/model"
)

// Errors of ID assignment. All of them are fatal.
var (
	ErrInvalidID           = errors.New("invalid node ID")
	ErrNodeShouldBeRoot    = errors.New("node should be root")
	ErrNodeShouldNotBeRoot = errors.New("node should not be root")
	ErrSourceShouldBeSet   = errors.New("source should be set")
	ErrIDGeneration        = errors.New("cannot generate ID")
)

// Error is an ID assignment error for a specific node.
type Error struct {
	Node *model.Node
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ID for node %s: %v", e.Node, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func nodeError(n *model.Node, err error) error {
	return &Error{Node: n, Err: err}
}

// MaxIDLength is the maximum length of a valid ID.
const MaxIDLength = 256

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidID is a predicate: is id acceptable as a node ID?
// Valid IDs consist of ASCII letters, digits, '_' and '-', and are at most
// MaxIDLength characters long.
func ValidID(id string) bool {
	return len(id) <= MaxIDLength && idPattern.MatchString(id)
}

// CheckID returns ErrInvalidID if id is not valid.
func CheckID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Provider computes IDs for nodes. Providers return a node's existing ID, if
// it has one.
type Provider interface {
	ID(n *model.Node) (string, error)
}

// ProviderFunc adapts a function to interface Provider.
type ProviderFunc func(n *model.Node) (string, error)

// ID is part of interface Provider.
func (f ProviderFunc) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	return f(n)
}

// Delegating providers ask another provider for IDs of related nodes (for
// example, the parent of a node). The delegate usually is the outer-most
// provider in use, so that its caching applies.
type Delegating interface {
	SetTopLevel(Provider)
}

// AssignIDsToTree sets IDs for all nodes of a tree without one, in pre-order.
func AssignIDsToTree(root *model.Node, p Provider) error {
	return model.Walk(root, func(n *model.Node) error {
		if n.HasID() {
			return nil
		}
		id, err := p.ID(n)
		if err != nil {
			return err
		}
		if err = CheckID(id); err != nil {
			return nodeError(n, err)
		}
		return n.SetID(id)
	})
}

// --- Identity cache --------------------------------------------------------

// identityCache maps nodes to IDs by node identity. It does not keep nodes alive.
type identityCache struct {
	mx  sync.Mutex
	ids map[weak.Pointer[model.Node]]string
}

func (c *identityCache) get(n *model.Node) (string, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	id, ok := c.ids[weak.Make(n)]
	return id, ok
}

func (c *identityCache) put(n *model.Node, id string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.ids == nil {
		c.ids = make(map[weak.Pointer[model.Node]]string)
	}
	k := weak.Make(n)
	if _, ok := c.ids[k]; !ok {
		runtime.AddCleanup(n, c.forget, k)
	}
	c.ids[k] = id
}

func (c *identityCache) forget(k weak.Pointer[model.Node]) {
	c.mx.Lock()
	defer c.mx.Unlock()
	delete(c.ids, k)
}

func (c *identityCache) size() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return len(c.ids)
}

// --- Sequential and random IDs ---------------------------------------------

// Sequential numbers nodes in the order they are first asked for. IDs are
// stable for a node during the lifetime of the provider, but not reproducible
// across runs.
type Sequential struct {
	mx    sync.Mutex
	next  int64
	cache identityCache
}

// NewSequential creates a sequential provider starting at `start`.
func NewSequential(start int64) *Sequential {
	return &Sequential{next: start}
}

// ID is part of interface Provider.
func (s *Sequential) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if id, ok := s.cache.get(n); ok {
		return id, nil
	}
	id := strconv.FormatInt(s.next, 10)
	s.next++
	s.cache.put(n, id)
	return id, nil
}

// Random assigns a random UUID to each node.
type Random struct {
	mx    sync.Mutex
	cache identityCache
}

// ID is part of interface Provider.
func (r *Random) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	if id, ok := r.cache.get(n); ok {
		return id, nil
	}
	id := uuid.NewString()
	r.cache.put(n, id)
	return id, nil
}

// --- Cache -----------------------------------------------------------------

// Cache is a facade for a provider, caching and validating IDs per node.
// A cache is meant to be used for one conversion.
type Cache struct {
	provider Provider
	cache    identityCache
}

// NewCache wraps p. If p is Delegating, the cache installs itself as p's
// top-level provider.
func NewCache(p Provider) *Cache {
	c := &Cache{provider: p}
	if d, ok := p.(Delegating); ok {
		d.SetTopLevel(c)
	}
	return c
}

// ID is part of interface Provider. It returns ErrInvalidID for IDs not
// matching ValidID.
func (c *Cache) ID(n *model.Node) (string, error) {
	if n.HasID() {
		if err := CheckID(n.ID()); err != nil {
			return "", nodeError(n, err)
		}
		return n.ID(), nil
	}
	if id, ok := c.cache.get(n); ok {
		return id, nil
	}
	id, err := c.provider.ID(n)
	if err != nil {
		return "", err
	}
	if err = CheckID(id); err != nil {
		return "", nodeError(n, err)
	}
	c.cache.put(n, id)
	tracer().Debugf("ID for %s is %s", n.Type().Name, id)
	return id, nil
}

// Size returns the number of cached IDs.
func (c *Cache) Size() int {
	return c.cache.size()
}
