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

	"github.com/cnf/structhash"
	"github.com/npillmayer/arbor/meta"
)

// CompareOption influences structural comparison of trees.
type CompareOption int8

// Options for Diff and Equal.
const (
	IgnoreIDs       CompareOption = 1 << iota // do not compare node IDs
	IgnorePositions                           // do not compare positions
)

// Equal is a predicate: are two trees structurally equal? Trees are equal if
// they have the same types, feature values and order of children.
// References are compared by name and target ID.
func Equal(a, b *Node, opts ...CompareOption) bool {
	return len(Diff(a, b, opts...)) == 0
}

// Diff lists the structural differences between two trees.
func Diff(a, b *Node, opts ...CompareOption) []string {
	var o CompareOption
	for _, opt := range opts {
		o |= opt
	}
	var diffs []string
	diff(a, b, "", o, &diffs)
	return diffs
}

func diff(a, b *Node, path string, o CompareOption, diffs *[]string) {
	report := func(format string, args ...interface{}) {
		*diffs = append(*diffs, path+": "+fmt.Sprintf(format, args...))
	}
	if a == nil || b == nil {
		if a != b {
			report("%v vs %v", a, b)
		}
		return
	}
	if path == "" {
		path = a.typ.Name
	}
	if a.typ.Name != b.typ.Name {
		report("type %s vs %s", a.typ.Name, b.typ.Name)
		return
	}
	if o&IgnoreIDs == 0 && a.id != b.id {
		report("id %q vs %q", a.id, b.id)
	}
	if o&IgnorePositions == 0 {
		pa, pb := a.Position().String(), b.Position().String()
		if pa != pb {
			report("position %s vs %s", pa, pb)
		}
	}
	for _, f := range a.typ.Features() {
		fpath := path + "." + f.Name
		va, vb := a.values[f.Index()], b.values[f.Index()]
		switch f.Kind {
		case meta.Attribute:
			if fmt.Sprint(va) != fmt.Sprint(vb) {
				*diffs = append(*diffs, fmt.Sprintf("%s: %v vs %v", fpath, va, vb))
			}
		case meta.Containment:
			ca, cb := asNodes(va), asNodes(vb)
			if len(ca) != len(cb) {
				*diffs = append(*diffs, fmt.Sprintf("%s: %d vs %d children", fpath, len(ca), len(cb)))
				continue
			}
			for i := range ca {
				diff(ca[i], cb[i], fmt.Sprintf("%s[%d]", fpath, i), o, diffs)
			}
		case meta.Reference:
			ra, rb := refStrings(va, o), refStrings(vb, o)
			if ra != rb {
				*diffs = append(*diffs, fmt.Sprintf("%s: %s vs %s", fpath, ra, rb))
			}
		}
	}
}

func asNodes(v interface{}) []*Node {
	switch c := v.(type) {
	case *Node:
		if c != nil {
			return []*Node{c}
		}
	case []*Node:
		return c
	}
	return nil
}

func asRefs(v interface{}) []*ReferenceByName {
	switch r := v.(type) {
	case *ReferenceByName:
		if r != nil {
			return []*ReferenceByName{r}
		}
	case []*ReferenceByName:
		return r
	}
	return nil
}

func refStrings(v interface{}, o CompareOption) string {
	var sb strings.Builder
	for _, r := range asRefs(v) {
		sb.WriteString(r.Name)
		if o&IgnoreIDs == 0 {
			sb.WriteString("#" + r.TargetID())
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// --- Fingerprints ----------------------------------------------------------

// shape is an exported mirror of a tree, suitable for hashing.
type shape struct {
	Type       string
	ID         string
	Position   string
	Attributes map[string]string
	References map[string]string
	Children   map[string][]shape
}

func shapeOf(n *Node, o CompareOption) shape {
	s := shape{
		Type:       n.typ.Name,
		Attributes: make(map[string]string),
		References: make(map[string]string),
		Children:   make(map[string][]shape),
	}
	if o&IgnoreIDs == 0 {
		s.ID = n.id
	}
	if o&IgnorePositions == 0 {
		s.Position = n.Position().String()
	}
	for _, f := range n.typ.Features() {
		v := n.values[f.Index()]
		switch f.Kind {
		case meta.Attribute:
			if v != nil {
				s.Attributes[f.Name] = fmt.Sprint(v)
			}
		case meta.Containment:
			for _, c := range asNodes(v) {
				s.Children[f.Name] = append(s.Children[f.Name], shapeOf(c, o))
			}
		case meta.Reference:
			s.References[f.Name] = refStrings(v, o)
		}
	}
	return s
}

// Fingerprint computes a hash over the structure of a tree. Structurally equal
// trees (see Equal) have the same fingerprint.
func Fingerprint(root *Node, opts ...CompareOption) (string, error) {
	if root == nil {
		return "", nil
	}
	var o CompareOption
	for _, opt := range opts {
		o |= opt
	}
	return structhash.Hash(shapeOf(root, o), 1)
}

// --- Printing --------------------------------------------------------------

// Format returns an indented textual representation of a tree.
func Format(root *Node) string {
	var sb strings.Builder
	format(&sb, root, "", 0)
	return sb.String()
}

func format(sb *strings.Builder, n *Node, label string, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		sb.WriteString(label + ": ")
	}
	sb.WriteString(n.String())
	for _, f := range n.typ.Attributes() {
		if v := n.values[f.Index()]; v != nil {
			fmt.Fprintf(sb, " %s=%v", f.Name, v)
		}
	}
	for _, f := range n.typ.References() {
		for _, r := range asRefs(n.values[f.Index()]) {
			fmt.Fprintf(sb, " %s=%s", f.Name, r)
		}
	}
	if p, ok := PlaceholderOf(n); ok {
		fmt.Fprintf(sb, " [%s]", p)
	}
	sb.WriteByte('\n')
	for _, f := range n.typ.Containments() {
		for _, c := range asNodes(n.values[f.Index()]) {
			format(sb, c, f.Name, depth+1)
		}
	}
}
