package model

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/arbor"
)

// Origin is what a node has been derived from: another node, a fragment of
// source text, a parse tree node or a placeholder marker.
type Origin interface {
	Position() *arbor.Position // may be nil
	SourceText() string        // may be empty
}

var _ Origin = (*Node)(nil)

// --- Simple and composite origins ------------------------------------------

// SimpleOrigin is a fragment of source text.
type SimpleOrigin struct {
	Pos  *arbor.Position
	Text string
}

// Position is part of interface Origin.
func (o SimpleOrigin) Position() *arbor.Position { return o.Pos }

// SourceText is part of interface Origin.
func (o SimpleOrigin) SourceText() string { return o.Text }

// CompositeOrigin joins several origins, e.g. for a node derived from more
// than one source element.
type CompositeOrigin struct {
	Elements []Origin
}

// Position returns the union of the elements' positions.
func (o CompositeOrigin) Position() *arbor.Position {
	var pos *arbor.Position
	for _, e := range o.Elements {
		pos = pos.Union(e.Position())
	}
	return pos
}

// SourceText returns the source text of all elements, separated by blanks.
func (o CompositeOrigin) SourceText() string {
	texts := make([]string, 0, len(o.Elements))
	for _, e := range o.Elements {
		if t := e.SourceText(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// --- Placeholders ----------------------------------------------------------

// PlaceholderKind tells why a placeholder has been created.
type PlaceholderKind int8

// Kinds of placeholders.
const (
	Missing PlaceholderKind = iota // no transformation was found
	Failing                        // the transformation failed
)

func (k PlaceholderKind) String() string {
	if k == Failing {
		return "FailingTransformation"
	}
	return "MissingTransformation"
}

// ParsePlaceholderKind is the inverse of PlaceholderKind.String.
func ParsePlaceholderKind(s string) (PlaceholderKind, error) {
	switch s {
	case "MissingTransformation":
		return Missing, nil
	case "FailingTransformation":
		return Failing, nil
	}
	return Missing, fmt.Errorf("unknown placeholder kind %q", s)
}

// Placeholder is the origin of a node which has been synthesized as a
// stand-in because the transformation of Source was missing or failed.
type Placeholder struct {
	Kind     PlaceholderKind
	Source   Origin // may be nil
	Message  string
	Expected string // name of the expected node type, if any
}

// Position is part of interface Origin.
func (p *Placeholder) Position() *arbor.Position {
	if p.Source == nil {
		return nil
	}
	return p.Source.Position()
}

// SourceText is part of interface Origin.
func (p *Placeholder) SourceText() string {
	if p.Source == nil {
		return ""
	}
	return p.Source.SourceText()
}

func (p *Placeholder) String() string {
	return fmt.Sprintf("%s(%s)", p.Kind, p.Message)
}

// PlaceholderOf returns n's placeholder origin, if n is a placeholder.
func PlaceholderOf(n *Node) (*Placeholder, bool) {
	p, ok := n.origin.(*Placeholder)
	return p, ok
}

// --- Destinations ----------------------------------------------------------

// Destination is what a node has been mapped to. Nodes are destinations,
// as are the types in this section.
type Destination interface {
	isDestination()
}

var _ Destination = (*Node)(nil)

// CompositeDestination is used for nodes mapped to more than one target.
type CompositeDestination struct {
	Elements []Destination
}

func (CompositeDestination) isDestination() {}

// DroppedDestination marks a node which has intentionally not been mapped.
type DroppedDestination struct{}

func (DroppedDestination) isDestination() {}

// TextFileDestination is a location in a generated text file.
type TextFileDestination struct {
	Position *arbor.Position
}

func (TextFileDestination) isDestination() {}
