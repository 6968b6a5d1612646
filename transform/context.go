package transform

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// Context holds the state of a single transformation run: the issues found so
// far and the parent for nodes under construction. A context must not be shared
// between unrelated runs.
type Context struct {
	Issues []arbor.Issue
	Parent *model.Node
	t      *Transformer
}

// AddIssue records a diagnostic message. pos may be nil.
func (ctx *Context) AddIssue(msg string, severity arbor.Severity, pos *arbor.Position) arbor.Issue {
	issue := arbor.Issue{
		Type:     arbor.Translation,
		Message:  msg,
		Severity: severity,
		Position: pos,
	}
	ctx.Issues = append(ctx.Issues, issue)
	return issue
}

// HasErrors is a predicate: has an issue with severity Error been recorded?
func (ctx *Context) HasErrors() bool {
	for _, is := range ctx.Issues {
		if is.Severity == arbor.Error {
			return true
		}
	}
	return false
}

// Transform transforms a nested source value within this run. It is intended
// to be called from factories.
func (ctx *Context) Transform(src interface{}, expected *meta.Type) (*model.Node, error) {
	return ctx.transformer().Transform(src, ctx, expected)
}

// TransformMany transforms a nested source value within this run.
func (ctx *Context) TransformMany(src interface{}, expected *meta.Type) ([]*model.Node, error) {
	return ctx.transformer().TransformMany(src, ctx, expected)
}

// Registry returns the registry for output types.
func (ctx *Context) Registry() *meta.Registry {
	return ctx.transformer().Registry()
}

func (ctx *Context) transformer() *Transformer {
	if ctx.t == nil {
		panic("transformation context is not bound to a transformer")
	}
	return ctx.t
}
