package transform

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// Args holds child values for rules which bind their children at construction
// time, keyed by feature name. Values are already transformed: *model.Node or
// []*model.Node for containments, *model.ReferenceByName or a slice of them for
// references, plain values for attributes.
type Args map[string]interface{}

// Factory creates the output nodes for a source value. It may return any number
// of nodes, including none.
type Factory func(src interface{}, ctx *Context, args Args) ([]*model.Node, error)

// ChildGetter extracts the source value for a feature from a source value.
// It returns a single source value, a slice of source values, or nil.
type ChildGetter func(src interface{}) interface{}

// Finalizer is called for every output node after its children have been set.
type Finalizer func(n *model.Node, ctx *Context) error

type childRule struct {
	feature  string
	get      ChildGetter
	settable bool
}

// Rule describes how to transform source values of a type.
type Rule struct {
	source    string     // source type tag
	output    *meta.Type // declared output type, may be nil
	factory   Factory
	children  map[string]*childRule // key is "Type#feature" or "feature"
	finalizer Finalizer
	skip      bool
	bound     bool // children are bound at construction
	t         *Transformer
}

// Source returns the type tag this rule is registered for.
func (r *Rule) Source() string {
	return r.source
}

// Output returns the declared output type, or nil.
func (r *Rule) Output() *meta.Type {
	return r.output
}

// WithChild tells how to obtain the source value for an output feature. The
// transformer transforms the value and sets it after the output node has been
// created.
func (r *Rule) WithChild(feature string, get ChildGetter) *Rule {
	return r.addChild(feature, feature, get, true)
}

// WithScopedChild is like WithChild, but applies only to output nodes of type
// typeName. Scoped child rules take precedence over unscoped ones.
func (r *Rule) WithScopedChild(typeName, feature string, get ChildGetter) *Rule {
	return r.addChild(typeName+"#"+feature, feature, get, true)
}

// WithConstructorChild tells how to obtain the source value for an output
// feature which must be known when the output node is created. The transformed
// value is passed to the factory in Args. A single constructor child makes
// the rule bind all of its children at construction.
func (r *Rule) WithConstructorChild(feature string, get ChildGetter) *Rule {
	return r.addChild(feature, feature, get, false)
}

func (r *Rule) addChild(key, feature string, get ChildGetter, settable bool) *Rule {
	if !settable {
		r.bound = true
	}
	r.children[key] = &childRule{feature: feature, get: get, settable: settable}
	if r.t != nil {
		r.t.noChild.Purge()
	}
	return r
}

// WithFinalizer sets a function to be called on every output node after its
// children have been set.
func (r *Rule) WithFinalizer(f Finalizer) *Rule {
	r.finalizer = f
	return r
}

// SkipChildren tells the transformer that the factory takes care of the whole
// subtree. No child rules will be applied to the output nodes.
func (r *Rule) SkipChildren() *Rule {
	r.skip = true
	return r
}

// ChildrenBoundAtConstruction is a predicate.
func (r *Rule) ChildrenBoundAtConstruction() bool {
	return r.bound
}

// child finds the child rule for a feature of an output type.
func (r *Rule) child(t *meta.Type, feature string) *childRule {
	if cr, ok := r.children[t.Name+"#"+feature]; ok {
		return cr
	}
	return r.children[feature]
}
