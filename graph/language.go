package graph

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"encoding/json"
	"fmt"
	"io"
)

// Language describes the classifiers of a language in a tool-neutral way.
type Language struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Concepts []Concept     `json:"concepts"`
	Enums    []Enumeration `json:"enumerations,omitempty"`
}

// Concept describes a node type.
type Concept struct {
	Name       string        `json:"name"`
	Extends    []string      `json:"extends,omitempty"`
	Abstract   bool          `json:"abstract,omitempty"`
	Partition  bool          `json:"partition,omitempty"` // may be the root of a tree
	MustBeRoot bool          `json:"mustBeRoot,omitempty"`
	Features   []FeatureDecl `json:"features,omitempty"`
}

// FeatureDecl describes a feature declared by a concept. Kind is one of
// "property", "containment" and "reference".
type FeatureDecl struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Type     string `json:"type"`
	Many     bool   `json:"many,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Enumeration describes an enum type.
type Enumeration struct {
	Name     string   `json:"name"`
	Literals []string `json:"literals"`
}

// Concept returns the concept with a given name, or nil.
func (l *Language) Concept(name string) *Concept {
	for i := range l.Concepts {
		if l.Concepts[i].Name == name {
			return &l.Concepts[i]
		}
	}
	return nil
}

// Classifier returns the classifier of a concept of l.
func (l *Language) Classifier(concept string) Classifier {
	return Classifier{Language: l.Name, Name: concept}
}

// EncodeLanguage writes a language description as JSON.
func EncodeLanguage(w io.Writer, l *Language) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// DecodeLanguage reads a language description.
func DecodeLanguage(r io.Reader) (*Language, error) {
	l := &Language{}
	if err := json.NewDecoder(r).Decode(l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if l.Name == "" {
		return nil, fmt.Errorf("%w: language without name", ErrFormat)
	}
	return l, nil
}
