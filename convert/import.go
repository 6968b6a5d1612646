package convert

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// postponer collects links which can be set only after all nodes of an import
// have been created.
type postponer struct {
	refs         map[*model.ReferenceByName]*graph.Node
	refOrder     []*model.ReferenceByName
	origins      map[*model.Node]string
	destinations map[*model.Node][]string
	order        []*model.Node // nodes with origins or destinations
	placeholders []placeholder
	byID         map[string]*model.Node
}

type placeholder struct {
	node    *model.Node
	kind    model.PlaceholderKind
	message string
}

// Import converts the tree rooted at root to an AST. Graph nodes imported
// before are reused as long as the converter still remembers them.
//
// References to nodes within the tree are retrieved. References to nodes known
// from other conversions are retrieved, too; references to other nodes are
// resolved, i.e. they know the ID of their target. Origins and destinations
// must be retrievable, either from the converter or from the NodeResolver,
// unless the converter ignores missing links.
func (c *Converter) Import(root *graph.Node) (*model.Node, error) {
	if root == nil {
		return nil, nil
	}
	c.run.Lock()
	defer c.run.Unlock()
	pp := &postponer{
		refs:         make(map[*model.ReferenceByName]*graph.Node),
		origins:      make(map[*model.Node]string),
		destinations: make(map[*model.Node][]string),
		byID:         make(map[string]*model.Node),
	}
	nodes := graph.ThisAndDescendants(root)
	for i := len(nodes) - 1; i >= 0; i-- {
		g := nodes[i]
		if n := c.nodes.ByB(g); n != nil {
			pp.byID[g.ID] = n
			continue
		}
		n, err := c.instantiate(g, pp)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", g, err)
		}
		pp.byID[g.ID] = n
		c.nodes.Associate(n, g)
	}
	for _, g := range nodes {
		if err := c.importLinks(g, c.nodes.ByB(g), pp); err != nil {
			return nil, err
		}
	}
	if err := c.resolvePostponed(pp); err != nil {
		return nil, err
	}
	// placeholders wrap the origins just populated
	for _, ph := range pp.placeholders {
		err := ph.node.SetOrigin(&model.Placeholder{
			Kind:    ph.kind,
			Source:  ph.node.Origin(),
			Message: ph.message,
		})
		if err != nil {
			return nil, err
		}
	}
	tracer().Infof("imported %d nodes", len(nodes))
	return c.nodes.ByB(root), nil
}

func (c *Converter) instantiate(g *graph.Node, pp *postponer) (*model.Node, error) {
	if g.IsProxy() {
		return nil, fmt.Errorf("%w: cannot import proxy %s", ErrInvalidGraph, g.ID)
	}
	t, ok := c.Type(g.Classifier)
	if !ok {
		return nil, fmt.Errorf("%w: classifier %s", ErrUnknownType, g.Classifier)
	}
	if t.Abstract {
		return nil, fmt.Errorf("%w: %s is abstract", ErrInvalidGraph, t.Name)
	}
	if err := ids.CheckID(g.ID); err != nil {
		return nil, err
	}
	n := model.New(t)
	for _, f := range t.Features() {
		switch f.Kind {
		case meta.Attribute:
			s, found := g.Property(f.Name)
			if !found || s == nil {
				continue
			}
			v, err := c.codecs.decode(f, c.enum(t, f), *s)
			if err != nil {
				return nil, err
			}
			n.SetValue(f, v)
		case meta.Containment:
			var children []*model.Node
			for _, gc := range g.Children(f.Name) {
				child := c.nodes.ByB(gc)
				if child == nil {
					return nil, fmt.Errorf("%w: child %s", ErrInternalShell, gc)
				}
				if err := child.SetParent(n); err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if f.Many {
				if len(children) > 0 {
					n.SetValue(f, children)
				}
			} else if len(children) > 1 {
				return nil, fmt.Errorf("%w: %d children for single containment %s", ErrInvalidGraph, len(children), f.Name)
			} else if len(children) == 1 {
				n.SetValue(f, children[0])
			}
		case meta.Reference:
			var refs []*model.ReferenceByName
			for _, rv := range g.ReferenceValues(f.Name) {
				r := &model.ReferenceByName{Name: rv.ResolveInfo}
				if rv.Target != nil {
					pp.refs[r] = rv.Target
					pp.refOrder = append(pp.refOrder, r)
				}
				refs = append(refs, r)
			}
			if f.Many {
				if len(refs) > 0 {
					n.SetValue(f, refs)
				}
			} else if len(refs) > 1 {
				return nil, fmt.Errorf("%w: %d values for single reference %s", ErrInvalidGraph, len(refs), f.Name)
			} else if len(refs) == 1 {
				n.SetValue(f, refs[0])
			}
		}
	}
	if err := n.SetID(g.ID); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *Converter) importLinks(g *graph.Node, n *model.Node, pp *postponer) error {
	if s, found := g.Property(graph.PositionKey); found && s != nil {
		pos, err := arbor.ParsePosition(*s)
		if err != nil {
			return fmt.Errorf("importing position of %s: %w", g, err)
		}
		n.SetPosition(pos)
	}
	linked := false
	if origins := g.ReferenceValues(graph.OriginKey); len(origins) > 0 {
		if len(origins) > 1 || origins[0].Target == nil {
			return fmt.Errorf("%w: malformed origin of %s", ErrInvalidGraph, g)
		}
		pp.origins[n] = origins[0].TargetID()
		linked = true
	}
	if a := g.Annotation(graph.DroppedClassifier); a != nil {
		n.SetDestination(model.DroppedDestination{})
	}
	if a := g.Annotation(graph.PlaceholderClassifier); a != nil {
		ph := placeholder{node: n}
		if s, _ := a.Property(graph.PlaceholderTypeKey); s != nil {
			kind, err := model.ParsePlaceholderKind(*s)
			if err != nil {
				return fmt.Errorf("%w: placeholder of %s: %v", ErrInvalidGraph, g, err)
			}
			ph.kind = kind
		}
		if s, _ := a.Property(graph.PlaceholderMessageKey); s != nil {
			ph.message = *s
		}
		pp.placeholders = append(pp.placeholders, ph)
	}
	if dests := g.ReferenceValues(graph.DestinationKey); len(dests) > 0 {
		targets := make([]string, 0, len(dests))
		for _, rv := range dests {
			if rv.Target != nil {
				targets = append(targets, rv.TargetID())
			}
		}
		pp.destinations[n] = targets
		linked = true
	}
	if linked {
		pp.order = append(pp.order, n)
	}
	return nil
}

func (c *Converter) resolvePostponed(pp *postponer) error {
	for _, r := range pp.refOrder {
		target := pp.refs[r]
		r.Identifier = target.ID
		if target.IsProxy() {
			continue
		}
		if n := c.nodes.ByB(target); n != nil {
			r.SetReferred(n)
		}
	}
	for _, n := range pp.order {
		if id, ok := pp.origins[n]; ok {
			o, err := c.lookup(id, pp)
			if err != nil {
				return err
			}
			if o != nil {
				if err = n.SetOrigin(o); err != nil {
					return err
				}
			}
		}
		if dests, ok := pp.destinations[n]; ok {
			var elements []model.Destination
			for _, id := range dests {
				d, err := c.lookup(id, pp)
				if err != nil {
					return err
				}
				if d != nil {
					elements = append(elements, d)
				}
			}
			switch len(elements) {
			case 0:
			case 1:
				n.SetDestination(elements[0])
			default:
				n.SetDestination(model.CompositeDestination{Elements: elements})
			}
		}
	}
	return nil
}

// lookup finds the AST node for an ID: among the nodes of the current import,
// then among all nodes known to the converter, then from the resolver. If the
// node cannot be found, lookup returns nil when missing nodes are ignored.
func (c *Converter) lookup(id string, pp *postponer) (*model.Node, error) {
	if n, ok := pp.byID[id]; ok {
		return n, nil
	}
	for _, g := range c.nodes.Bs() {
		if g.ID == id {
			if n := c.nodes.ByB(g); n != nil {
				return n, nil
			}
		}
	}
	if n, ok := c.resolved.Get(id); ok {
		return n, nil
	}
	if c.resolver != nil {
		n, err := c.resolver.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrUnresolvedReference, id, err)
		}
		if n != nil {
			c.resolved.Add(id, n)
			return n, nil
		}
	}
	if c.ignoreMissing {
		tracer().Debugf("ignoring unresolvable node %s", id)
		return nil, nil
	}
	return nil, fmt.Errorf("%w %s", ErrUnresolvedReference, id)
}
