package ids

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func todoLanguage(t *testing.T) *meta.Registry {
	b := meta.NewBuilder("todo")
	b.Type("Named").Abstract().Attr("name", meta.String).End()
	b.Type("TodoProject").Extends("Named").Root().Contains("todos", "Todo", true).End()
	b.Type("Todo").Extends("Named").Contains("details", "Detail", false).End()
	b.Type("Detail").Attr("text", meta.String).End()
	b.Type("Workspace").MustBeRoot().Contains("projects", "TodoProject", true).End()
	reg, err := b.Registry()
	require.NoError(t, err)
	return reg
}

func project(t *testing.T, reg *meta.Registry) *model.Node {
	p := model.New(reg.MustType("TodoProject")).Set("name", "home")
	for _, name := range []string{"shop", "cook", "eat"} {
		p.Add("todos", model.New(reg.MustType("Todo")).Set("name", name))
	}
	p.ChildList("todos")[1].Set("details", model.New(reg.MustType("Detail")))
	require.NoError(t, model.AssignParents(p))
	return p
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("p1_todos_2"))
	assert.True(t, ValidID("a-B-9"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("a b"))
	assert.False(t, ValidID("a.b"))
	assert.True(t, ValidID(strings.Repeat("x", MaxIDLength)))
	assert.False(t, ValidID(strings.Repeat("x", MaxIDLength+1)))
}

func TestStructuralIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	ids := NewCache(NewStructural("p1"))
	var got []string
	for _, n := range append([]*model.Node{p}, p.ChildList("todos")...) {
		id, err := ids.ID(n)
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []string{"p1", "p1_todos", "p1_todos_1", "p1_todos_2"}, got)
	id, err := ids.ID(p.ChildList("todos")[1].Child("details"))
	require.NoError(t, err)
	assert.Equal(t, "p1_todos_1_details", id)
	again, _ := ids.ID(p.ChildList("todos")[2])
	assert.Equal(t, "p1_todos_2", again)
	assert.Equal(t, 5, ids.Size())
}

func TestStructuralPreconditions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	s := NewStructural("src")
	lonely := model.New(reg.MustType("Todo"))
	_, err := s.ID(lonely)
	assert.True(t, errors.Is(err, ErrNodeShouldNotBeRoot), "got %v", err)
	var idErr *Error
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, lonely, idErr.Node)
	//
	ws := model.New(reg.MustType("Workspace"))
	outer := model.New(reg.MustType("Workspace"))
	outer.Add("projects", model.New(reg.MustType("TodoProject")))
	require.NoError(t, model.AssignParents(outer))
	_, err = s.ID(ws)
	assert.NoError(t, err)
	_, err = s.ID(outer.ChildList("projects")[0])
	assert.NoError(t, err)
	//
	p := project(t, reg)
	_, err = (&Structural{}).ID(p)
	assert.True(t, errors.Is(err, ErrSourceShouldBeSet), "got %v", err)
	_, err = NewStructural("").ID(p)
	assert.True(t, errors.Is(err, ErrSourceShouldBeSet), "got %v", err)
}

func TestMustBeRoot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	b := meta.NewBuilder("nested")
	b.Type("Unit").MustBeRoot().Contains("units", "Unit", true).End()
	reg, err := b.Registry()
	require.NoError(t, err)
	root := model.New(reg.MustType("Unit"))
	root.Add("units", model.New(reg.MustType("Unit")))
	require.NoError(t, model.AssignParents(root))
	_, err = NewStructural("u").ID(root.ChildList("units")[0])
	assert.True(t, errors.Is(err, ErrNodeShouldBeRoot), "got %v", err)
}

type sourced string

func (s sourced) SourceID() string { return string(s) }

type sourcedOrigin struct {
	model.SimpleOrigin
	sourced
}

func TestOriginSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	intermediate := model.New(reg.MustType("TodoProject"))
	intermediate.SetOrigin(sourcedOrigin{sourced: "file-1"})
	p.SetOrigin(intermediate)
	id, err := (&Structural{}).ID(p)
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)
}

func TestDeclarativeIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	named := func(prefix string) NamingFunc {
		return func(n *model.Node, _ Provider) (string, error) {
			return prefix + n.Get("name").(string), nil
		}
	}
	d := NewDeclarative().
		IDFor("Named", named("named-")).
		IDFor("Todo", func(n *model.Node, ids Provider) (string, error) {
			pid, err := ids.ID(n.Parent())
			return pid + "-" + n.Get("name").(string), err
		})
	ids := NewCache(NewCommon(d, NewStructural("x")))
	id, err := ids.ID(p)
	require.NoError(t, err)
	assert.Equal(t, "named-home", id)
	id, err = ids.ID(p.ChildList("todos")[0])
	require.NoError(t, err)
	assert.Equal(t, "named-home-shop", id)
	id, err = ids.ID(p.ChildList("todos")[1].Child("details"))
	require.NoError(t, err)
	assert.Equal(t, "named-home-cook_details", id)
	//
	_, err = NewDeclarative().ID(p)
	assert.True(t, errors.Is(err, ErrIDGeneration))
}

func TestDeclarativeTieBreak(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	b := meta.NewBuilder("mixins")
	b.Type("Beta").Attr("b", meta.String).End()
	b.Type("Alpha").Attr("a", meta.String).End()
	b.Type("Both").Extends("Beta", "Alpha").Root().End()
	reg, err := b.Registry()
	require.NoError(t, err)
	constant := func(s string) NamingFunc {
		return func(*model.Node, Provider) (string, error) { return s, nil }
	}
	d := NewDeclarative().IDFor("Beta", constant("beta")).IDFor("Alpha", constant("alpha"))
	id, err := d.ID(model.New(reg.MustType("Both")))
	require.NoError(t, err)
	assert.Equal(t, "alpha", id)
	d.IDFor("Both", constant("both"))
	id, _ = d.ID(model.New(reg.MustType("Both")))
	assert.Equal(t, "both", id)
}

func TestSequentialAndRandom(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	seq := NewSequential(1)
	a, _ := seq.ID(p)
	b, _ := seq.ID(p.ChildList("todos")[0])
	a2, _ := seq.ID(p)
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)
	assert.Equal(t, a, a2)
	//
	rnd := &Random{}
	r1, _ := rnd.ID(p)
	r2, _ := rnd.ID(p)
	r3, _ := rnd.ID(p.ChildList("todos")[0])
	assert.Equal(t, r1, r2)
	assert.NotEqual(t, r1, r3)
	assert.True(t, ValidID(r1))
	//
	require.NoError(t, p.SetID("preset"))
	id, _ := seq.ID(p)
	assert.Equal(t, "preset", id)
}

func TestCacheRejectsInvalidIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	bad := NewCache(ProviderFunc(func(*model.Node) (string, error) { return "not valid!", nil }))
	_, err := bad.ID(p)
	assert.True(t, errors.Is(err, ErrInvalidID), "got %v", err)
	err = AssignIDsToTree(p, ProviderFunc(func(*model.Node) (string, error) { return "a b", nil }))
	assert.True(t, errors.Is(err, ErrInvalidID), "got %v", err)
	assert.False(t, p.HasID())
}

type counter struct {
	next  int
	calls int
}

func (c *counter) ProvideIDs(_ context.Context, n int) ([]string, error) {
	c.calls++
	ids := make([]string, n)
	for i := range ids {
		c.next++
		ids[i] = fmt.Sprintf("id_%d", c.next)
	}
	return ids, nil
}

func TestAssignFromSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.ids")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(t, reg)
	src := &counter{}
	require.NoError(t, AssignIDsToTree(p, AssignFromSource(context.Background(), src, 2)))
	var got []string
	model.Walk(p, func(n *model.Node) error {
		got = append(got, n.ID())
		return nil
	})
	assert.Equal(t, []string{"id_1", "id_2", "id_3", "id_4", "id_5"}, got)
	assert.Equal(t, 3, src.calls)
}
