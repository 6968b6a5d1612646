package transform

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// Errors of the transformation engine.
var (
	ErrUnmapped          = errors.New("no transformation rule")
	ErrCollectionSource  = errors.New("received a collection where a single value was expected")
	ErrMultipleOutputs   = errors.New("cannot transform into a single node, as multiple nodes were produced")
	ErrConstructionChild = errors.New("cannot bind children at construction")
)

// RuleError is returned in strict mode if a rule fails.
type RuleError struct {
	Source string // type tag of the source value
	Target string // name of the output type
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("failed to transform %s into %s: %v", e.Source, e.Target, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Tagged is implemented by source values which know their type chain, most
// specific type first.
type Tagged interface {
	TypeChain() []string
}

// TypeTagged is implemented by source values which know their type tag.
// Super-types are looked up in the transformer's Hierarchy.
type TypeTagged interface {
	TypeTag() string
}

// FailedParse is implemented by source values which may represent a part of
// the input the parser could not make sense of.
type FailedParse interface {
	ParseError() error
}

// Hierarchy maps type tags to their direct super-type tags, in declaration order.
type Hierarchy map[string][]string

// DefaultFunc transforms source values without a rule.
type DefaultFunc func(src interface{}, ctx *Context, expected *meta.Type) ([]*model.Node, error)

// Transformer transforms source trees into ASTs. Transformers may be shared
// between goroutines, provided all rules have been set up before transformations
// start.
type Transformer struct {
	mx             sync.RWMutex
	reg            *meta.Registry
	rules          map[string]*Rule
	hierarchy      Hierarchy
	deflt          DefaultFunc
	strict         bool // fail on rule errors
	strictUnmapped bool // fail on unmapped source values
	noChild        *lru.Cache[string, struct{}]
	cacheSize      int
}

// New creates a transformer producing nodes of types from reg.
func New(reg *meta.Registry, opts ...Option) *Transformer {
	if reg == nil {
		panic("transformer needs a type registry")
	}
	t := &Transformer{
		reg:       reg,
		rules:     make(map[string]*Rule),
		hierarchy: make(Hierarchy),
		cacheSize: 1024,
	}
	for _, opt := range opts {
		opt(t)
	}
	c, err := lru.New[string, struct{}](t.cacheSize)
	if err != nil {
		panic(err)
	}
	t.noChild = c
	return t
}

// Registry returns the type registry of output nodes.
func (t *Transformer) Registry() *meta.Registry {
	return t.reg
}

// NewContext creates a context for a transformation run.
func (t *Transformer) NewContext() *Context {
	return &Context{t: t}
}

// --- Registration ----------------------------------------------------------

// Register adds a rule for source values with type tag sourceTag, replacing a
// previous rule for this tag. outputType names the type of nodes the factory
// will produce; it may be empty if unknown.
func (t *Transformer) Register(sourceTag, outputType string, f Factory) *Rule {
	var out *meta.Type
	if outputType != "" {
		out = t.reg.MustType(outputType)
	}
	r := &Rule{
		source:   sourceTag,
		output:   out,
		factory:  f,
		children: make(map[string]*childRule),
		t:        t,
	}
	t.mx.Lock()
	t.rules[sourceTag] = r
	t.mx.Unlock()
	t.noChild.Purge()
	tracer().Debugf("registered rule %s → %s", sourceTag, outputType)
	return r
}

// RegisterNode adds a rule with a factory producing at most one node.
// Returning a nil node drops the source value.
func (t *Transformer) RegisterNode(sourceTag, outputType string,
	f func(src interface{}, ctx *Context) (*model.Node, error)) *Rule {
	//
	return t.Register(sourceTag, outputType, func(src interface{}, ctx *Context, _ Args) ([]*model.Node, error) {
		n, err := f(src, ctx)
		if err != nil || n == nil {
			return nil, err
		}
		return []*model.Node{n}, nil
	})
}

// RegisterType adds a rule creating an empty node of outputType for each
// source value. Feature values are set by child rules. Constructor children
// are set right after creation.
func (t *Transformer) RegisterType(sourceTag, outputType string) *Rule {
	out := t.reg.MustType(outputType)
	return t.Register(sourceTag, outputType, func(src interface{}, ctx *Context, args Args) ([]*model.Node, error) {
		n := model.New(out)
		for name, v := range args {
			f := out.Feature(name)
			if f == nil {
				return nil, fmt.Errorf("%w: type %s has no feature %s", ErrConstructionChild, out.Name, name)
			}
			if v != nil {
				n.SetValue(f, v)
			}
		}
		return []*model.Node{n}, nil
	})
}

func (t *Transformer) lookup(chain []string) *Rule {
	t.mx.RLock()
	defer t.mx.RUnlock()
	for _, tag := range chain {
		if r, ok := t.rules[tag]; ok {
			return r
		}
	}
	return nil
}

// chain computes the type tags of a source value, most specific first.
func (t *Transformer) chain(src interface{}) []string {
	switch s := src.(type) {
	case *model.Node:
		return s.Type().ChainNames()
	case Tagged:
		return s.TypeChain()
	case TypeTagged:
		return t.expand(s.TypeTag())
	}
	return t.expand(fmt.Sprintf("%T", src))
}

func (t *Transformer) expand(tag string) []string {
	chain := []string{tag}
	seen := map[string]bool{tag: true}
	for i := 0; i < len(chain); i++ {
		for _, super := range t.hierarchy[chain[i]] {
			if !seen[super] {
				seen[super] = true
				chain = append(chain, super)
			}
		}
	}
	return chain
}

// --- Transformation --------------------------------------------------------

// Transform transforms a source value into at most one node. If ctx is nil, a
// new context is used. expected is the type of node the caller expects; it is
// used for placeholders and may be nil.
func (t *Transformer) Transform(src interface{}, ctx *Context, expected *meta.Type) (*model.Node, error) {
	nodes, err := t.transformNodes(src, t.context(ctx), expected)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	}
	return nil, fmt.Errorf("%w (%d nodes from %s)", ErrMultipleOutputs, len(nodes), t.chain(src)[0])
}

// TransformMany transforms a source value into any number of nodes. If src is
// a slice or array, all of its elements are transformed and the results are
// concatenated.
func (t *Transformer) TransformMany(src interface{}, ctx *Context, expected *meta.Type) ([]*model.Node, error) {
	ctx = t.context(ctx)
	if !isCollection(src) {
		return t.transformNodes(src, ctx, expected)
	}
	var nodes []*model.Node
	err := forEachElement(src, func(e interface{}) error {
		nn, err := t.transformNodes(e, ctx, expected)
		nodes = append(nodes, nn...)
		return err
	})
	return nodes, err
}

func (t *Transformer) context(ctx *Context) *Context {
	if ctx == nil {
		return t.NewContext()
	}
	if ctx.t == nil {
		ctx.t = t
	}
	return ctx
}

func (t *Transformer) transformNodes(src interface{}, ctx *Context, expected *meta.Type) ([]*model.Node, error) {
	if isNil(src) {
		return nil, nil
	}
	if isCollection(src) {
		return nil, fmt.Errorf("%w (%T)", ErrCollectionSource, src)
	}
	chain := t.chain(src)
	if fp, ok := src.(FailedParse); ok && fp.ParseError() != nil {
		return t.failing(src, chain[0], ctx, expected, fp.ParseError())
	}
	rule := t.lookup(chain)
	if rule == nil {
		return t.unmapped(src, chain[0], ctx, expected)
	}
	nodes, err := t.makeNodes(rule, src, ctx)
	if err != nil {
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) || errors.Is(err, ErrUnmapped) || errors.Is(err, ErrCollectionSource) {
			return nil, err // already escalated by a nested transformation
		}
		out := rule.output
		if out == nil {
			out = expected
		}
		return t.failing(src, chain[0], ctx, out, err)
	}
	parent := ctx.Parent
	if !rule.skip && !rule.bound {
		for _, n := range nodes {
			ctx.Parent = n
			if err = t.setChildren(rule, src, n, ctx); err != nil {
				ctx.Parent = parent
				return nil, err
			}
		}
	}
	ctx.Parent = parent
	for _, n := range nodes {
		if rule.finalizer != nil {
			if err = rule.finalizer(n, ctx); err != nil {
				if t.strict {
					return nil, &RuleError{Source: chain[0], Target: n.Type().Name, Err: err}
				}
				ctx.AddIssue(fmt.Sprintf("finalizing %s failed (%s)", n, err), arbor.Error, n.Position())
			}
		}
		if err = t.adopt(parent, n); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// makeNodes invokes the factory of a rule. Panics of the factory are converted
// into errors.
func (t *Transformer) makeNodes(rule *Rule, src interface{}, ctx *Context) (nodes []*model.Node, err error) {
	var args Args
	if rule.bound {
		if args, err = t.constructionArgs(rule, src, ctx); err != nil {
			return nil, err
		}
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		nodes, err = rule.factory(src, ctx, args)
	}()
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("factory for %s returned a nil node", rule.source)
		}
	}
	setOrigins(nodes, src)
	return nodes, nil
}

// setOrigins lets every node without an origin point back to src.
func setOrigins(nodes []*model.Node, src interface{}) {
	origin := asOrigin(src)
	if origin == nil {
		return
	}
	for _, n := range nodes {
		if n == nil || n.Origin() != nil {
			continue
		}
		if on, ok := origin.(*model.Node); !ok || on != n {
			n.SetOrigin(origin)
		}
	}
}

func (t *Transformer) constructionArgs(rule *Rule, src interface{}, ctx *Context) (Args, error) {
	if rule.output == nil {
		return nil, fmt.Errorf("%w: rule for %s has no declared output type", ErrConstructionChild, rule.source)
	}
	args := make(Args)
	for _, f := range rule.output.Features() {
		cr := rule.child(rule.output, f.Name)
		if cr == nil {
			continue
		}
		v, err := t.childValue(cr.get(src), f, ctx)
		if err != nil {
			return nil, err
		}
		args[f.Name] = v
	}
	return args, nil
}

// setChildren populates the features of n for which rule has child rules.
func (t *Transformer) setChildren(rule *Rule, src interface{}, n *model.Node, ctx *Context) error {
	typ := n.Type()
	for _, f := range typ.Features() {
		key := rule.source + "→" + typ.Name + "#" + f.Name
		if t.noChild.Contains(key) {
			continue
		}
		cr := rule.child(typ, f.Name)
		if cr == nil {
			t.noChild.Add(key, struct{}{})
			continue
		}
		v, err := t.childValue(cr.get(src), f, ctx)
		if err != nil {
			return err
		}
		n.SetValue(f, v)
	}
	return nil
}

// childValue transforms a source value for a feature.
func (t *Transformer) childValue(v interface{}, f *meta.Feature, ctx *Context) (interface{}, error) {
	if isNil(v) {
		return nil, nil
	}
	switch f.Kind {
	case meta.Containment:
		expected := t.reg.Type(f.Type)
		if f.Many {
			nodes, err := t.TransformMany(v, ctx, expected)
			if err != nil {
				return nil, err
			}
			return nodes, nil
		}
		n, err := t.Transform(v, ctx, expected)
		if err != nil || n == nil {
			return nil, err
		}
		return n, nil
	case meta.Reference:
		if f.Many {
			var refs []*model.ReferenceByName
			err := forEachElement(v, func(e interface{}) error {
				if r := asReference(e); r != nil {
					refs = append(refs, r)
				}
				return nil
			})
			return refs, err
		}
		if r := asReference(v); r != nil {
			return r, nil
		}
		return nil, nil
	}
	return v, nil
}

func asReference(v interface{}) *model.ReferenceByName {
	switch r := v.(type) {
	case *model.ReferenceByName:
		return r
	case string:
		return model.RefTo(r)
	case fmt.Stringer:
		return model.RefTo(r.String())
	}
	return nil
}

// adopt links n to parent and all of n's direct children to n.
func (t *Transformer) adopt(parent, n *model.Node) error {
	if parent != n {
		if err := n.SetParent(parent); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := c.SetParent(n); err != nil {
			return err
		}
	}
	return nil
}

// --- Placeholders ----------------------------------------------------------

func (t *Transformer) unmapped(src interface{}, tag string, ctx *Context, expected *meta.Type) ([]*model.Node, error) {
	if t.deflt != nil {
		nodes, err := t.deflt(src, ctx, expected)
		if err != nil {
			var ruleErr *RuleError
			if errors.As(err, &ruleErr) || errors.Is(err, ErrUnmapped) {
				return nil, err
			}
			return t.failing(src, tag, ctx, expected, err)
		}
		setOrigins(nodes, src)
		for _, n := range nodes {
			if err = t.adopt(ctx.Parent, n); err != nil {
				return nil, err
			}
		}
		return nodes, nil
	}
	if t.strictUnmapped {
		return nil, fmt.Errorf("%w: unable to transform %s", ErrUnmapped, tag)
	}
	typ := t.placeholderType(expected)
	n := model.New(typ)
	n.SetOrigin(&model.Placeholder{
		Kind:     model.Missing,
		Source:   asOrigin(src),
		Message:  fmt.Sprintf("no transformation for %s", tag),
		Expected: typeName(expected),
	})
	ctx.AddIssue(fmt.Sprintf("no transformation for %s, expected %s", tag, typ.Name), arbor.Warning, n.Position())
	tracer().Debugf("missing transformation for %s", tag)
	if err := t.adopt(ctx.Parent, n); err != nil {
		return nil, err
	}
	return []*model.Node{n}, nil
}

func (t *Transformer) failing(src interface{}, tag string, ctx *Context, out *meta.Type, cause error) ([]*model.Node, error) {
	if t.strict {
		return nil, &RuleError{Source: tag, Target: typeName(out), Err: cause}
	}
	typ := t.placeholderType(out)
	msg := fmt.Sprintf("failed to transform %s into %s because of an error (%s)", tag, typ.Name, cause)
	n := model.New(typ)
	n.SetOrigin(&model.Placeholder{
		Kind:     model.Failing,
		Source:   asOrigin(src),
		Message:  msg,
		Expected: typeName(out),
	})
	ctx.AddIssue(msg, arbor.Error, n.Position())
	tracer().Infof("%s", msg)
	if err := t.adopt(ctx.Parent, n); err != nil {
		return nil, err
	}
	return []*model.Node{n}, nil
}

func (t *Transformer) placeholderType(expected *meta.Type) *meta.Type {
	if expected == nil || expected.Abstract {
		return t.reg.MustType(meta.GenericNodeType)
	}
	return expected
}

func typeName(t *meta.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func asOrigin(src interface{}) model.Origin {
	if o, ok := src.(model.Origin); ok {
		return o
	}
	return nil
}

// --- Collections -----------------------------------------------------------

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isCollection(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// forEachElement calls f for every element of a slice or array. A value which
// is not a collection is treated as a collection of one.
func forEachElement(v interface{}, f func(interface{}) error) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := f(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		return fmt.Errorf("%w (%T)", ErrCollectionSource, v)
	}
	return f(v)
}
