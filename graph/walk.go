package graph

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
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrContainment is returned by CheckContainment for graphs which are not a
// forest with respect to containment.
var ErrContainment = errors.New("containment is not a tree")

// ThisAndDescendants returns root and all of its descendants in pre-order.
// Proxies are never descended into.
func ThisAndDescendants(root *Node) []*Node {
	if root == nil {
		return nil
	}
	var nodes []*Node
	stack := arraystack.New()
	stack.Push(root)
	for !stack.Empty() {
		top, _ := stack.Pop()
		n := top.(*Node)
		nodes = append(nodes, n)
		children := n.AllChildren()
		for i := len(children) - 1; i >= 0; i-- {
			stack.Push(children[i])
		}
	}
	return nodes
}

// CheckContainment checks that the containments of a set of nodes form a
// forest: no node is contained twice, no node contains itself, there are no
// containment cycles, and parent links agree with containments.
func CheckContainment(nodes []*Node) error {
	index := make(map[*Node]int64, len(nodes))
	g := simple.NewDirectedGraph()
	add := func(n *Node) int64 {
		if id, ok := index[n]; ok {
			return id
		}
		id := int64(len(index))
		index[n] = id
		g.AddNode(simple.Node(id))
		return id
	}
	for _, n := range nodes {
		add(n)
	}
	contained := make(map[*Node]*Node)
	for _, n := range nodes {
		from := add(n)
		for _, c := range n.AllChildren() {
			if c == n {
				return fmt.Errorf("%w: %s contains itself", ErrContainment, n)
			}
			if p, ok := contained[c]; ok {
				return fmt.Errorf("%w: %s is contained by %s and %s", ErrContainment, c, p, n)
			}
			contained[c] = n
			if c.Parent != nil && c.Parent != n && !c.Parent.IsProxy() {
				return fmt.Errorf("%w: parent of %s is %s, but it is contained by %s",
					ErrContainment, c, c.Parent, n)
			}
			g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(add(c))))
		}
	}
	if _, err := topo.Sort(g); err != nil {
		tracer().Debugf("containment cycle: %v", err)
		return fmt.Errorf("%w: containment cycle", ErrContainment)
	}
	return nil
}
