package cst

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

// Source is an input text, identified by a name (e.g., a file name).
type Source struct {
	ID   string
	Text string
}

// Node is a node of a parse tree. Inner nodes represent grammar rules, leaves
// represent tokens.
type Node struct {
	Tag      string
	Token    *Token // set for leaves only
	Children []*Node
	Err      error // set if this node covers input which failed to parse
	Span     arbor.Span
	Pos      *arbor.Position
	source   *Source
}

// Leaf creates a parse tree node for a token.
func Leaf(tag string, tok *Token) *Node {
	return &Node{Tag: tag, Token: tok, Span: tok.Sp, Pos: tok.Pos}
}

// NewNode creates an inner node. Span and position are derived from the
// children; nil children are dropped.
func NewNode(tag string, children ...*Node) *Node {
	n := &Node{Tag: tag}
	for _, c := range children {
		n.Append(c)
	}
	return n
}

// Append adds a child, extending span and position of n.
func (n *Node) Append(c *Node) *Node {
	if c == nil {
		return n
	}
	if len(n.Children) == 0 && n.Span.IsNull() {
		n.Span = c.Span
	} else {
		n.Span = n.Span.Extend(c.Span)
	}
	n.Pos = n.Pos.Union(c.Pos)
	n.Children = append(n.Children, c)
	return n
}

// Failed marks a node as covering erroneous input.
func (n *Node) Failed(err error) *Node {
	n.Err = err
	return n
}

// Adopt binds a parse tree to its source text.
func (src *Source) Adopt(root *Node) {
	Walk(root, func(n *Node) bool {
		n.source = src
		return true
	})
}

// TypeTag returns the tag of n, used to dispatch transformation rules.
func (n *Node) TypeTag() string {
	return n.Tag
}

// ParseError returns the error of a node which failed to parse, or nil.
func (n *Node) ParseError() error {
	return n.Err
}

// Position returns the line/column range covered by n, possibly nil.
func (n *Node) Position() *arbor.Position {
	return n.Pos
}

// SourceText returns the input covered by n. If n is not bound to a source,
// the lexemes of its tokens are joined.
func (n *Node) SourceText() string {
	if n.source != nil && n.Span.To() <= uint64(len(n.source.Text)) {
		return n.source.Text[n.Span.From():n.Span.To()]
	}
	var lexemes []string
	Walk(n, func(c *Node) bool {
		if c.Token != nil {
			lexemes = append(lexemes, c.Token.Text)
		}
		return true
	})
	return strings.Join(lexemes, " ")
}

// SourceID returns the ID of the source n has been parsed from.
func (n *Node) SourceID() string {
	if n.source == nil {
		return ""
	}
	return n.source.ID
}

// Lexeme returns the lexeme of a leaf, or "" for inner nodes.
func (n *Node) Lexeme() string {
	if n == nil || n.Token == nil {
		return ""
	}
	return n.Token.Text
}

// Child returns the first child with a given tag.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenTagged returns all children with a given tag.
func (n *Node) ChildrenTagged(tag string) []*Node {
	if n == nil {
		return nil
	}
	var cc []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			cc = append(cc, c)
		}
	}
	return cc
}

func (n *Node) String() string {
	if n.Token != nil {
		return fmt.Sprintf("%s %q", n.Tag, n.Token.Text)
	}
	return n.Tag
}

// --- Walking ---------------------------------------------------------------

// Walk visits a parse tree top-down, left to right. If visit returns false,
// the children of the node are skipped.
func Walk(root *Node, visit func(*Node) bool) {
	if root == nil {
		return
	}
	if !visit(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, visit)
	}
}

// Errors collects the nodes of a tree which failed to parse.
func Errors(root *Node) []*Node {
	var failed []*Node
	Walk(root, func(n *Node) bool {
		if n.Err != nil {
			failed = append(failed, n)
		}
		return true
	})
	return failed
}

// Format returns an indented multi-line rendering of a parse tree.
func Format(root *Node) string {
	var sb strings.Builder
	TopDown(root, Listener{
		Enter: func(n *Node, ctx Ctxt) bool {
			sb.WriteString(strings.Repeat("  ", ctx.Level))
			sb.WriteString(n.String())
			if n.Err != nil {
				sb.WriteString(" !" + n.Err.Error())
			}
			sb.WriteByte('\n')
			return true
		},
	}, LtoR)
	return sb.String()
}
