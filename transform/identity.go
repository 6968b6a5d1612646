package transform

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// Identity is a default transformation which copies AST nodes. Children are
// transformed recursively, so rules registered for some node types override
// the copying for these subtrees. References are copied as-is; attribute values
// are shared.
//
// Identity is usually installed with WithDefault(Identity) for AST-to-AST
// transformations that change only a few node types.
func Identity(src interface{}, ctx *Context, expected *meta.Type) ([]*model.Node, error) {
	n, ok := src.(*model.Node)
	if !ok {
		return nil, fmt.Errorf("identity transformation expects an AST node, got %T", src)
	}
	c := model.New(n.Type())
	parent := ctx.Parent
	ctx.Parent = c
	defer func() { ctx.Parent = parent }()
	for _, f := range n.Type().Features() {
		v := n.Value(f)
		if v == nil {
			continue
		}
		switch f.Kind {
		case meta.Attribute:
			c.SetValue(f, v)
		case meta.Containment:
			expected := ctx.Registry().Type(f.Type)
			if f.Many {
				kids, err := ctx.TransformMany(v, expected)
				if err != nil {
					return nil, err
				}
				c.SetValue(f, kids)
			} else if kid, err := ctx.Transform(v, expected); err != nil {
				return nil, err
			} else if kid != nil {
				c.SetValue(f, kid)
			}
		case meta.Reference:
			c.SetValue(f, copyRefs(v))
		}
	}
	if err := c.SetOrigin(n); err != nil {
		return nil, err
	}
	return []*model.Node{c}, nil
}

func copyRefs(v interface{}) interface{} {
	cp := func(r *model.ReferenceByName) *model.ReferenceByName {
		if r == nil {
			return nil
		}
		c := *r
		return &c
	}
	switch r := v.(type) {
	case *model.ReferenceByName:
		return cp(r)
	case []*model.ReferenceByName:
		refs := make([]*model.ReferenceByName, len(r))
		for i, x := range r {
			refs[i] = cp(x)
		}
		return refs
	}
	return v
}

// RegisterIdentity adds a rule which passes AST nodes of a type through
// unchanged, including their subtrees.
func (t *Transformer) RegisterIdentity(typeName string) *Rule {
	return t.RegisterNode(typeName, typeName, func(src interface{}, _ *Context) (*model.Node, error) {
		n, ok := src.(*model.Node)
		if !ok {
			return nil, fmt.Errorf("identity rule for %s expects an AST node, got %T", typeName, src)
		}
		return n, nil
	}).SkipChildren()
}

// RegisterUnwrapping adds a rule for source values which merely wrap a single
// child, as is common for parse trees of grammar rules with alternatives. The
// result of transforming the child is returned in place of the wrapper.
// children must return the child candidates of a source value; exactly one of
// them must be non-nil.
func (t *Transformer) RegisterUnwrapping(sourceTag string, children func(src interface{}) []interface{}) *Rule {
	return t.Register(sourceTag, "", func(src interface{}, ctx *Context, _ Args) ([]*model.Node, error) {
		var kids []interface{}
		for _, c := range children(src) {
			if !isNil(c) {
				kids = append(kids, c)
			}
		}
		if len(kids) != 1 {
			return nil, fmt.Errorf("%s has %d node children, unwrapping needs exactly one", sourceTag, len(kids))
		}
		return ctx.TransformMany(kids[0], nil)
	}).SkipChildren()
}
