package todo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/arbor/resolve"
	"github.com/npillmayer/arbor/transform"
)

//go:embed todo.yaml
var languageDef []byte

var language *meta.Registry
var languageOnce sync.Once

// Language returns the type registry of the todo language.
func Language() *meta.Registry {
	languageOnce.Do(func() {
		var err error
		if language, err = meta.LoadYAML(bytes.NewReader(languageDef)); err != nil {
			panic("todo language definition is broken: " + err.Error())
		}
	})
	return language
}

// NewTransformer creates a transformer from todo parse trees to todo ASTs.
func NewTransformer(opts ...transform.Option) *transform.Transformer {
	t := transform.New(Language(), opts...)
	t.RegisterType(TagProject, "TodoProject").
		WithChild("name", func(s interface{}) interface{} {
			return unquote(s.(*cst.Node).Child(TagName).Lexeme())
		}).
		WithChild("todos", func(s interface{}) interface{} {
			return s.(*cst.Node).ChildrenTagged(TagTodo)
		})
	t.RegisterType(TagTodo, "Todo").
		WithChild("name", func(s interface{}) interface{} {
			return s.(*cst.Node).Child(TagName).Lexeme()
		}).
		WithChild("description", func(s interface{}) interface{} {
			n := s.(*cst.Node)
			if d := n.Child(TagDescription); d != nil {
				return unquote(d.Lexeme())
			}
			return n.Child(TagName).Lexeme()
		}).
		WithChild("prerequisite", func(s interface{}) interface{} {
			if pre := s.(*cst.Node).Child(TagPrerequisite); pre != nil {
				return pre.Lexeme()
			}
			return nil
		})
	return t
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}

// NewResolver creates a resolver for prerequisites. Todos of the same project
// are found first; they shadow todos of other projects given as libs.
func NewResolver(libs ...*model.Node) *resolve.Resolver {
	siblings := resolve.Siblings("todos")
	scope := func(n *model.Node, run *resolve.Run) (*resolve.Scope, error) {
		local, err := siblings(n, run)
		if err != nil || len(libs) == 0 {
			return local, err
		}
		external := run.Memo("todo:libs", func() *resolve.Scope {
			sc := resolve.NewScope("libs", nil)
			for _, lib := range libs {
				for _, t := range lib.ChildList("todos") {
					if name := resolve.NameOf(t); name != "" {
						sc.Define(name, t)
					}
				}
			}
			return sc
		})
		if local == nil {
			return external, nil
		}
		local.Parent = external
		return local, nil
	}
	return resolve.NewResolver().ScopeFor("Todo", "prerequisite", scope)
}
