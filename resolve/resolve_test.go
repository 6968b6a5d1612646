package resolve

import (
	"errors"
	"testing"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	symtab := NewSymbolTable()
	sym1, old := symtab.Define("b", nil)
	assert.Nil(t, old)
	sym2, _ := symtab.Define("a", nil)
	assert.NotEqual(t, sym1, sym2)
	assert.Equal(t, sym1, symtab.Resolve("b"))
	_, old = symtab.Define("b", nil)
	assert.Equal(t, sym1, old, "symbol should have been replaced")
	var names []string
	symtab.Each(func(name string, _ *Symbol) { names = append(names, name) })
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, symtab.Size())
}

func TestScopeUpsearch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	parent := NewScope("parent", nil)
	scope := NewScope("current", parent)
	parent.Define("new-sym", nil)
	sym, where := scope.Resolve("new-sym")
	require.NotNil(t, sym)
	assert.Equal(t, parent, where)
	sym, _ = scope.Resolve("no-sym")
	assert.Nil(t, sym)
}

func TestScopeTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	st := &ScopeTree{}
	assert.True(t, st.Empty())
	g := st.PushNewScope("globals")
	inner := st.PushNewScope("inner")
	assert.Equal(t, inner, st.Current())
	assert.Equal(t, g, st.Globals())
	assert.Equal(t, inner, st.PopScope())
	assert.Equal(t, g, st.Current())
	st.PopScope()
	assert.True(t, st.Empty())
	assert.Panics(t, func() { st.PopScope() })
}

// --- Resolution ------------------------------------------------------------

func language(t *testing.T) *meta.Registry {
	b := meta.NewBuilder("todo")
	b.Type("Named").Abstract().Attr("name", meta.String).End()
	b.Type("Project").Extends("Named").Root().Contains("todos", "Todo", true).End()
	b.Type("Todo").Extends("Named").
		Ref("prerequisite", "Todo", false).
		Ref("see", "Named", true).
		Contains("subtodos", "Todo", true).End()
	reg, err := b.Registry()
	require.NoError(t, err)
	return reg
}

func todo(reg *meta.Registry, name, prereq string) *model.Node {
	n := model.New(reg.MustType("Todo")).Set("name", name)
	if prereq != "" {
		n.Set("prerequisite", model.RefTo(prereq))
	}
	return n
}

func project(t *testing.T, reg *meta.Registry, todos ...*model.Node) *model.Node {
	p := model.New(reg.MustType("Project")).Set("name", "p")
	p.Add("todos", todos...)
	require.NoError(t, model.AssignParents(p))
	return p
}

func TestResolveSiblings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	reg := language(t)
	a, b := todo(reg, "a", ""), todo(reg, "b", "a")
	c := todo(reg, "c", "x")
	c.SetPosition(arbor.Pos(3, 0, 3, 10))
	root := project(t, reg, a, b, c)
	r := NewResolver().ScopeFor("Todo", "prerequisite", Siblings("todos"))
	issues, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, a, b.Ref("prerequisite").Referred)
	require.Len(t, issues, 1)
	assert.Equal(t, arbor.Semantic, issues[0].Type)
	assert.Equal(t, arbor.Error, issues[0].Severity)
	assert.Contains(t, issues[0].Message, `"x"`)
	assert.Equal(t, "L3:0-L3:10", issues[0].Position.String())
	assert.False(t, c.Ref("prerequisite").Retrieved())
}

func TestResolveByIdentifier(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	reg := language(t)
	a := todo(reg, "a", "")
	require.NoError(t, a.SetID("todo-a"))
	b := todo(reg, "b", "renamed")
	b.Ref("prerequisite").Identifier = "todo-a"
	root := project(t, reg, a, b)
	r := NewResolver().ScopeFor("Todo", "prerequisite", Siblings("todos"))
	issues, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, a, b.Ref("prerequisite").Referred)
}

func TestResolveGlobalAndSupertype(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	reg := language(t)
	a, b := todo(reg, "a", ""), todo(reg, "b", "")
	sub := todo(reg, "deep", "")
	a.Add("subtodos", sub)
	b.Set("see", []*model.ReferenceByName{model.RefTo("p"), model.RefTo("deep")})
	root := project(t, reg, a, b)
	r := NewResolver().ScopeFor("Named", "see", Global("Named"))
	issues, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Empty(t, issues)
	see := b.RefList("see")
	assert.Equal(t, root, see[0].Referred)
	assert.Equal(t, sub, see[1].Referred)
}

func TestResolveLexical(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	reg := language(t)
	outerX := todo(reg, "x", "")
	a := todo(reg, "a", "")
	innerX := todo(reg, "x", "")
	inner := todo(reg, "inner", "x")
	a.Add("subtodos", innerX, inner)
	b := todo(reg, "b", "x")
	root := project(t, reg, outerX, a, b)
	r := NewResolver().ScopeFor("Todo", "prerequisite", Lexical(OfType("Todo")))
	issues, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, innerX, inner.Ref("prerequisite").Referred)
	assert.Equal(t, outerX, b.Ref("prerequisite").Referred)
	scopes := BuildScopes(root, OfType("Todo"))
	assert.Equal(t, root, scopes.Globals().Node)
	assert.Equal(t, a, scopes.For(innerX).Node)
}

func TestResolveProviderError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.resolve")
	defer teardown()
	//
	reg := language(t)
	root := project(t, reg, todo(reg, "a", "b"))
	failing := func(n *model.Node, run *Run) (*Scope, error) {
		return nil, errors.New("no scope")
	}
	_, err := NewResolver().ScopeFor("Todo", "prerequisite", failing).Resolve(root)
	assert.Error(t, err)
	// without a provider, references are left alone
	issues, err := NewResolver().Resolve(root)
	assert.NoError(t, err)
	assert.Empty(t, issues)
}
