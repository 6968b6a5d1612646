package ids

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strconv"

	"github.com/npillmayer/arbor/model"
)

// SourceIDProvider provides the ID of the source a root node stems from.
type SourceIDProvider interface {
	SourceID(root *model.Node) (string, error)
}

// ConstantSource always returns the same source ID.
type ConstantSource string

// SourceID is part of interface SourceIDProvider.
func (c ConstantSource) SourceID(*model.Node) (string, error) {
	if c == "" {
		return "", ErrSourceShouldBeSet
	}
	return string(c), nil
}

// SourceIdentified is implemented by origins which know the ID of their source,
// e.g. parse trees of a file.
type SourceIdentified interface {
	SourceID() string
}

// OriginSource derives the source ID from the origin of a node. Origins which
// are nodes are followed until an origin implementing SourceIdentified is found.
type OriginSource struct{}

// SourceID is part of interface SourceIDProvider.
func (OriginSource) SourceID(root *model.Node) (string, error) {
	seen := map[*model.Node]bool{}
	for o := root.Origin(); o != nil; {
		if s, ok := o.(SourceIdentified); ok && s.SourceID() != "" {
			return s.SourceID(), nil
		}
		on, ok := o.(*model.Node)
		if !ok || seen[on] {
			break
		}
		seen[on] = true
		o = on.Origin()
	}
	return "", ErrSourceShouldBeSet
}

// Structural computes IDs from the position of a node in its tree. A root
// node gets the source ID, other nodes get
//
//    <parentID>_<feature>            for the first child in a containment feature
//    <parentID>_<feature>_<index>    for subsequent children
//
// Structural IDs tend to get long, and computing them requires climbing up to
// the root. Clients should wrap a Structural provider in a Cache.
type Structural struct {
	Source   SourceIDProvider // defaults to OriginSource
	topLevel Provider
}

// NewStructural creates a structural provider with a constant source ID.
func NewStructural(sourceID string) *Structural {
	return &Structural{Source: ConstantSource(sourceID)}
}

// SetTopLevel is part of interface Delegating. Parent IDs are requested from p.
func (s *Structural) SetTopLevel(p Provider) {
	if p == Provider(s) {
		p = nil
	}
	s.topLevel = p
}

func (s *Structural) top() Provider {
	if s.topLevel == nil {
		return s
	}
	return s.topLevel
}

// ID is part of interface Provider.
func (s *Structural) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	t := n.Type()
	if n.Parent() == nil {
		if !t.RootCapable {
			return "", nodeError(n, ErrNodeShouldNotBeRoot)
		}
		src := s.Source
		if src == nil {
			src = OriginSource{}
		}
		sid, err := src.SourceID(n)
		if err != nil {
			return "", nodeError(n, fmt.Errorf("%w (root node looking for a positional ID)", err))
		}
		return sid, nil
	}
	if t.MustBeRoot {
		return "", nodeError(n, ErrNodeShouldBeRoot)
	}
	f, index, ok := n.ContainingFeature()
	if !ok {
		return "", nodeError(n, fmt.Errorf("%w: node is not a child of its parent %s",
			ErrIDGeneration, n.Parent()))
	}
	pid, err := s.top().ID(n.Parent())
	if err != nil {
		return "", err
	}
	if index == 0 {
		return pid + "_" + f.Name, nil
	}
	return pid + "_" + f.Name + "_" + strconv.Itoa(index), nil
}
