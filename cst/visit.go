package cst

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

// Direction lets clients decide wether children nodes should be traversed
// left-to-right (default) or right-to-left.
type Direction int

// Children nodes may be traversed left-to-right (default) or right-to-left.
const (
	LtoR Direction = 1
	RtoL Direction = -1
)

// Ctxt is a context structure for listeners.
type Ctxt struct {
	Level  int           // nesting level, 0 for the start node
	Values []interface{} // values of the children, in input order (Exit only)
}

// Listener is a type for walking a parse tree. All functions are optional.
//
// Enter returns a boolean value indicating if the traversal should continue
// to the children of this node. Exit and Terminal may return user-defined
// values to be propagated upwards of the tree. Exit receives the values of
// the children in its context.
type Listener struct {
	Enter    func(*Node, Ctxt) bool
	Exit     func(*Node, Ctxt) interface{}
	Terminal func(*Node, Ctxt) interface{}
}

// TopDown traverses a tree top-down, applying listener functions for all nodes
// encountered. It returns the value calculated by the listener for root.
func TopDown(root *Node, listener Listener, dir Direction) interface{} {
	if root == nil {
		return nil
	}
	tracer().Debugf("TopDown starting at node %v", root)
	return traverse(root, listener, dir, 0)
}

func traverse(n *Node, listener Listener, dir Direction, level int) interface{} {
	ctxt := Ctxt{Level: level}
	if n.Token != nil && len(n.Children) == 0 {
		if listener.Enter != nil {
			listener.Enter(n, ctxt)
		}
		if listener.Terminal != nil {
			return listener.Terminal(n, ctxt)
		}
		return nil
	}
	doContinue := true
	if listener.Enter != nil {
		doContinue = listener.Enter(n, ctxt)
	}
	if doContinue {
		ctxt.Values = make([]interface{}, len(n.Children))
		i, end := 0, len(n.Children)
		if dir == RtoL {
			i, end = len(n.Children)-1, -1
		}
		for ; i != end; i += int(dir) {
			ctxt.Values[i] = traverse(n.Children[i], listener, dir, level+1)
		}
	}
	if listener.Exit != nil {
		return listener.Exit(n, ctxt)
	}
	return nil
}
