package convert

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// Export converts the tree rooted at root to a graph. Nodes without an ID get
// one from the converter's ID provider; apart from that, the AST is left
// untouched. If root has a parent, the resulting graph node refers to it as a
// proxy.
//
// Graph nodes are reused for AST nodes exported before, as long as the
// converter still remembers them; their feature values are rebuilt.
func (c *Converter) Export(root *model.Node) (*graph.Node, error) {
	if root == nil {
		return nil, nil
	}
	c.run.Lock()
	defer c.run.Unlock()
	idc := ids.NewCache(c.provider)
	nodes := model.PreOrder(root)
	// allocate shells; c.nodes holds them weakly, so keep them alive here
	// until the export is complete
	shells := make([]*graph.Node, len(nodes))
	for i, n := range nodes {
		if g := c.nodes.ByA(n); g != nil {
			shells[i] = g
			continue
		}
		id, err := idc.ID(n)
		if err != nil {
			return nil, err
		}
		if !n.HasID() {
			if err = n.SetID(id); err != nil {
				return nil, err
			}
		}
		cl, ok := c.Classifier(n.Type())
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, n.Type().Name)
		}
		shells[i] = graph.NewNode(id, cl)
		c.nodes.Associate(n, shells[i])
	}
	// populate shells
	for i, n := range nodes {
		if err := c.populate(n, shells[i], idc); err != nil {
			return nil, err
		}
	}
	g := shells[0]
	g.Parent = nil
	if p := root.Parent(); p != nil {
		id, err := idc.ID(p)
		if err != nil {
			return nil, fmt.Errorf("cannot create proxy for parent of %s: %w", root, err)
		}
		g.Parent = graph.Proxy(id)
	}
	tracer().Infof("exported %d nodes", len(nodes))
	return g, nil
}

func (c *Converter) populate(n *model.Node, g *graph.Node, idc *ids.Cache) error {
	g.Properties, g.Containments, g.References, g.Annotations = nil, nil, nil, nil
	if pos := n.Position(); pos != nil {
		g.SetProperty(graph.PositionKey, graph.Str(pos.String()))
	} else {
		g.SetProperty(graph.PositionKey, nil)
	}
	t := n.Type()
	for _, f := range t.Features() {
		v := n.Value(f)
		switch f.Kind {
		case meta.Attribute:
			if v == nil {
				g.SetProperty(f.Name, nil)
				continue
			}
			s, err := c.codecs.encode(f, c.enum(t, f), v)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", n, err)
			}
			g.SetProperty(f.Name, graph.Str(s))
		case meta.Containment:
			g.DeclareContainment(f.Name)
			for _, child := range childList(v) {
				shell := c.nodes.ByA(child)
				if shell == nil {
					return fmt.Errorf("%w: %s in %s of %s", ErrInternalShell, child, f.Name, n)
				}
				g.AddChild(f.Name, shell)
			}
		case meta.Reference:
			values := []graph.ReferenceValue{}
			for _, r := range refList(v) {
				rv, err := c.referenceValue(r, idc)
				if err != nil {
					return fmt.Errorf("exporting reference %s of %s: %w", f.Name, n, err)
				}
				values = append(values, rv)
			}
			g.SetReferenceValues(f.Name, values)
		}
	}
	if err := c.exportOrigin(n, g, idc); err != nil {
		return err
	}
	return c.exportDestination(n, g, idc)
}

func (c *Converter) referenceValue(r *model.ReferenceByName, idc *ids.Cache) (graph.ReferenceValue, error) {
	rv := graph.ReferenceValue{ResolveInfo: r.Name}
	switch {
	case r.Retrieved():
		if shell := c.nodes.ByA(r.Referred); shell != nil {
			rv.Target = shell
			return rv, nil
		}
		id := r.Identifier
		if id == "" {
			var err error
			if id, err = idc.ID(r.Referred); err != nil {
				return rv, err
			}
		}
		rv.Target = graph.Proxy(id)
	case r.Resolved():
		rv.Target = graph.Proxy(r.Identifier)
	}
	return rv, nil
}

func (c *Converter) exportOrigin(n *model.Node, g *graph.Node, idc *ids.Cache) error {
	var target *model.Node
	switch o := n.Origin().(type) {
	case *model.Node:
		target = o
	case *model.Placeholder:
		a := &graph.Annotation{
			ID:         g.ID + "_placeholder_annotation",
			Classifier: graph.PlaceholderClassifier,
		}
		a.SetProperty(graph.PlaceholderTypeKey, graph.Str(o.Kind.String()))
		a.SetProperty(graph.PlaceholderMessageKey, graph.Str(o.Message))
		g.AddAnnotation(a)
		target, _ = o.Source.(*model.Node)
	}
	values := []graph.ReferenceValue{}
	if target != nil {
		id, err := idc.ID(target)
		if err != nil {
			return fmt.Errorf("exporting origin of %s: %w", n, err)
		}
		values = append(values, graph.ReferenceValue{Target: graph.Proxy(id)})
	}
	g.SetReferenceValues(graph.OriginKey, values)
	return nil
}

func (c *Converter) exportDestination(n *model.Node, g *graph.Node, idc *ids.Cache) error {
	var targets []*model.Node
	switch d := n.Destination().(type) {
	case *model.Node:
		targets = append(targets, d)
	case model.CompositeDestination:
		for _, e := range d.Elements {
			if dn, ok := e.(*model.Node); ok {
				targets = append(targets, dn)
			}
		}
	case model.DroppedDestination:
		g.AddAnnotation(&graph.Annotation{
			ID:         g.ID + "-dropped",
			Classifier: graph.DroppedClassifier,
		})
	}
	values := make([]graph.ReferenceValue, 0, len(targets))
	for _, dn := range targets {
		id, err := idc.ID(dn)
		if err != nil {
			return fmt.Errorf("exporting destination of %s: %w", n, err)
		}
		values = append(values, graph.ReferenceValue{Target: graph.Proxy(id)})
	}
	g.SetReferenceValues(graph.DestinationKey, values)
	return nil
}

func childList(v interface{}) []*model.Node {
	switch c := v.(type) {
	case *model.Node:
		if c != nil {
			return []*model.Node{c}
		}
	case []*model.Node:
		return c
	}
	return nil
}

func refList(v interface{}) []*model.ReferenceByName {
	switch r := v.(type) {
	case *model.ReferenceByName:
		if r != nil {
			return []*model.ReferenceByName{r}
		}
	case []*model.ReferenceByName:
		return r
	}
	return nil
}
