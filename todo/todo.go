package todo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/arbor/transform"
)

// Result is the outcome of loading a todo source.
type Result struct {
	Source *cst.Source
	Tree   *cst.Node   // parse tree
	AST    *model.Node // root of type TodoProject
	Issues []arbor.Issue
}

// HasErrors is a predicate: has an issue with severity Error been found?
func (r *Result) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == arbor.Error {
			return true
		}
	}
	return false
}

// Loader runs the complete pipeline from source text to a resolved AST.
// A loader may be used for any number of sources, one at a time.
type Loader struct {
	tr   *transform.Transformer
	libs []*model.Node
}

// NewLoader creates a loader. Transformation options are passed on to the
// transformer.
func NewLoader(opts ...transform.Option) *Loader {
	return &Loader{tr: NewTransformer(opts...)}
}

// AddLibrary makes the todos of another project available as prerequisites.
func (l *Loader) AddLibrary(project *model.Node) *Loader {
	l.libs = append(l.libs, project)
	return l
}

// Load parses, transforms and resolves a source. Issues of all phases are
// collected in the result. An error is returned if the pipeline could not be
// run, e.g. because of a transformation error in strict mode.
func (l *Loader) Load(src *cst.Source) (*Result, error) {
	res := &Result{Source: src}
	tree, issues, err := Parse(src)
	if err != nil {
		return nil, err
	}
	res.Tree, res.Issues = tree, issues
	ctx := l.tr.NewContext()
	if res.AST, err = l.tr.Transform(tree, ctx, Language().MustType("TodoProject")); err != nil {
		return res, err
	}
	res.Issues = append(res.Issues, ctx.Issues...)
	if err = model.AssignParents(res.AST); err != nil {
		return res, err
	}
	issues, err = NewResolver(l.libs...).Resolve(res.AST)
	res.Issues = append(res.Issues, issues...)
	tracer().P("source", src.ID).Infof("loaded with %d issues", len(res.Issues))
	return res, err
}

// LoadString is a shortcut for loading a source text with a default loader.
func LoadString(id, text string) (*Result, error) {
	return NewLoader().Load(&cst.Source{ID: id, Text: text})
}
