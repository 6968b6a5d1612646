package model

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// SkipChildren may be returned by a visitor to prevent descending into the
// children of the node just visited.
var SkipChildren = errors.New("skip children")

// Visitor is called for every node of a walk. Returning an error other than
// SkipChildren stops the walk.
type Visitor func(n *Node) error

// Walk traverses a tree in pre-order, depth first, left to right.
//
// Walk uses an explicit stack, so deep trees will not exhaust the call stack.
func Walk(root *Node, visit Visitor) error {
	if root == nil {
		return nil
	}
	stack := arraystack.New()
	stack.Push(root)
	for !stack.Empty() {
		top, _ := stack.Pop()
		n := top.(*Node)
		err := visit(n)
		if err == SkipChildren {
			continue
		} else if err != nil {
			return err
		}
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack.Push(children[i])
		}
	}
	return nil
}

// WalkDescendants is like Walk, but does not visit root.
func WalkDescendants(root *Node, visit Visitor) error {
	return Walk(root, func(n *Node) error {
		if n == root {
			return nil
		}
		return visit(n)
	})
}

// PreOrder collects all nodes of a tree in pre-order.
func PreOrder(root *Node) []*Node {
	var nodes []*Node
	_ = Walk(root, func(n *Node) error {
		nodes = append(nodes, n)
		return nil
	})
	return nodes
}

// AssignParents sets the parent back link of every node below root to its
// container. The parent of root itself is left untouched.
func AssignParents(root *Node) error {
	seen := make(map[*Node]bool)
	return Walk(root, func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("%w: %s is reachable more than once", ErrCycle, n)
		}
		seen[n] = true
		for _, c := range n.Children() {
			if err := c.SetParent(n); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasValidParents checks that every child in a tree has its container as
// parent, and that no node is its own parent.
func HasValidParents(root *Node) bool {
	err := Walk(root, func(n *Node) error {
		if n.parent == n {
			return ErrSelfParent
		}
		for _, c := range n.Children() {
			if c.parent != n {
				tracer().Debugf("%s has parent %s instead of %s", c, c.parent, n)
				return ErrSelfParent
			}
		}
		return nil
	})
	return err == nil
}

// FindAncestor returns the nearest proper ancestor of n which is of type
// typeName or one of its subtypes.
func FindAncestor(n *Node, typeName string) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.typ.IsSubtypeOf(typeName) {
			return p
		}
	}
	return nil
}

// Root returns the top-most ancestor of n (or n itself).
func Root(n *Node) *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Find returns the first node (in pre-order) below root with a given ID.
func Find(root *Node, id string) *Node {
	var found *Node
	_ = Walk(root, func(n *Node) error {
		if n.id == id {
			found = n
			return errFound
		}
		return nil
	})
	return found
}

var errFound = errors.New("found")
