package convert

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func todoLanguage(t *testing.T) *meta.Registry {
	b := meta.NewBuilder("todo")
	b.Enum("Prio", "low", "normal", "high")
	b.Type("Named").Abstract().Attr("name", meta.String).End()
	b.Type("TodoProject").Extends("Named").Root().Contains("todos", "Todo", true).End()
	b.Type("Todo").Extends("Named").
		Attr("prio", "Prio").Opt().
		Attr("done", meta.Bool).Opt().
		Attr("estimate", meta.Int).Opt().
		Attr("effort", meta.Float).Opt().
		Ref("prerequisite", "Todo", false).Opt().
		Contains("details", "Details", false).Opt().
		End()
	b.Type("Details").Attr("text", meta.String).Ref("see", "Todo", true).End()
	reg, err := b.Registry()
	require.NoError(t, err)
	return reg
}

func project(reg *meta.Registry) *model.Node {
	todo := func(name string) *model.Node {
		return model.New(reg.MustType("Todo")).Set("name", name)
	}
	p := model.New(reg.MustType("TodoProject")).Set("name", "home")
	shop, cook, eat := todo("shop"), todo("cook"), todo("eat")
	shop.Set("prio", "high").Set("done", true).Set("estimate", 3).Set("effort", 2.5)
	shop.SetPosition(arbor.Pos(2, 2, 2, 12))
	details := model.New(reg.MustType("Details")).Set("text", "see below")
	details.Set("see", []*model.ReferenceByName{model.RefTo("eat"), model.RefTo("nowhere")})
	cook.Set("details", details)
	p.Add("todos", shop, cook, eat)
	// forward and backward references
	cook.Set("prerequisite", &model.ReferenceByName{Name: "shop", Referred: shop})
	details.RefList("see")[0].SetReferred(eat)
	eat.Set("prerequisite", &model.ReferenceByName{Name: "cook", Identifier: "somewhere_else"})
	model.AssignParents(p)
	return p
}

func roundTrip(t *testing.T, g *graph.Node) *graph.Node {
	var buf bytes.Buffer
	require.NoError(t, graph.EncodeJSON(&buf, g))
	require.NoError(t, graph.ValidateJSON(buf.Bytes()))
	roots, err := graph.DecodeJSON(&buf)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	return roots[0]
}

func TestExport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(reg)
	before, err := model.Fingerprint(p, model.IgnoreIDs)
	require.NoError(t, err)
	c := New([]*meta.Registry{reg}, WithIDProvider(ids.NewStructural("p1")))
	g, err := c.Export(p)
	require.NoError(t, err)
	after, err := model.Fingerprint(p, model.IgnoreIDs)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	//
	assert.Equal(t, "p1", g.ID)
	assert.Equal(t, "p1", p.ID())
	assert.Equal(t, graph.Classifier{Language: "todo", Name: "TodoProject"}, g.Classifier)
	todos := g.Children("todos")
	require.Len(t, todos, 3)
	assert.Equal(t, []string{"p1_todos", "p1_todos_1", "p1_todos_2"},
		[]string{todos[0].ID, todos[1].ID, todos[2].ID})
	assert.Equal(t, "p1_todos_1_details", todos[1].Children("details")[0].ID)
	for _, prop := range []struct{ key, value string }{
		{"name", "shop"}, {"prio", "high"}, {"done", "true"}, {"estimate", "3"}, {"effort", "2.5"},
		{graph.PositionKey, "L2:2-L2:12"},
	} {
		v, ok := todos[0].Property(prop.key)
		require.True(t, ok, prop.key)
		require.NotNil(t, v, prop.key)
		assert.Equal(t, prop.value, *v)
	}
	v, ok := todos[1].Property("prio")
	assert.True(t, ok)
	assert.Nil(t, v)
	// retrieved, resolved, unresolved
	pre := todos[1].ReferenceValues("prerequisite")
	require.Len(t, pre, 1)
	assert.Same(t, todos[0], pre[0].Target)
	pre = todos[2].ReferenceValues("prerequisite")
	require.Len(t, pre, 1)
	assert.True(t, pre[0].Target.IsProxy())
	assert.Equal(t, "somewhere_else", pre[0].TargetID())
	see := todos[1].Children("details")[0].ReferenceValues("see")
	require.Len(t, see, 2)
	assert.Same(t, todos[2], see[0].Target)
	assert.Nil(t, see[1].Target)
	assert.Equal(t, "nowhere", see[1].ResolveInfo)
	assert.Empty(t, todos[0].ReferenceValues("prerequisite"))
	//
	assert.Equal(t, 5, c.Associations())
	assert.Same(t, g, c.GraphNode(p))
	assert.Same(t, p, c.ASTNode(g))
	g2, err := c.Export(p)
	require.NoError(t, err)
	assert.Same(t, g, g2)
	assert.Len(t, g2.Children("todos"), 3)
	//
	sub, err := c.Export(p.ChildList("todos")[1])
	require.NoError(t, err)
	require.NotNil(t, sub.Parent)
	assert.True(t, sub.Parent.IsProxy())
	assert.Equal(t, "p1", sub.Parent.ID)
}

func TestExportWhileCollecting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := model.New(reg.MustType("TodoProject")).Set("name", "big")
	var prev *model.Node
	for i := 0; i < 3000; i++ {
		todo := model.New(reg.MustType("Todo")).Set("name", fmt.Sprintf("t%d", i))
		if prev != nil {
			todo.Set("prerequisite", &model.ReferenceByName{Name: prev.Get("name").(string), Referred: prev})
		}
		p.Add("todos", todo)
		prev = todo
	}
	require.NoError(t, model.AssignParents(p))
	//
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				runtime.GC()
			}
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()
	for round := 0; round < 10; round++ {
		c := New([]*meta.Registry{reg}, WithIDProvider(ids.NewStructural("p1")))
		g, err := c.Export(p)
		require.NoError(t, err, "round %d", round)
		todos := g.Children("todos")
		require.Len(t, todos, 3000)
		assert.Same(t, todos[41], todos[42].ReferenceValues("prerequisite")[0].Target)
	}
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(reg)
	exporter := New([]*meta.Registry{reg}, WithIDProvider(ids.NewStructural("p1")))
	g, err := exporter.Export(p)
	require.NoError(t, err)
	importer := New([]*meta.Registry{reg})
	q, err := importer.Import(roundTrip(t, g))
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.True(t, model.Equal(p, q), "diffs: %v", model.Diff(p, q))
	assert.True(t, model.HasValidParents(q))
	fp, err := model.Fingerprint(p)
	require.NoError(t, err)
	fq, err := model.Fingerprint(q)
	require.NoError(t, err)
	assert.Equal(t, fp, fq)
	//
	todos := q.ChildList("todos")
	assert.Same(t, todos[0], todos[1].Ref("prerequisite").Referred)
	assert.Same(t, todos[2], todos[1].Child("details").RefList("see")[0].Referred)
	ext := todos[2].Ref("prerequisite")
	assert.True(t, ext.Resolved())
	assert.False(t, ext.Retrieved())
	assert.Equal(t, "somewhere_else", ext.Identifier)
	unres := todos[1].Child("details").RefList("see")[1]
	assert.False(t, unres.Resolved())
	assert.Equal(t, "L2:2-L2:12", todos[0].Position().String())
	assert.Equal(t, 3, todos[0].Get("estimate"))
	assert.Equal(t, 2.5, todos[0].Get("effort"))
	assert.Equal(t, true, todos[0].Get("done"))
	//
	again, err := importer.Import(roundTrip(t, g))
	require.NoError(t, err)
	assert.NotSame(t, q, again)
	assert.True(t, model.Equal(q, again))
}

func TestBinaryRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	p := project(reg)
	g, err := New([]*meta.Registry{reg}, WithIDProvider(ids.NewSequential(1))).Export(p)
	require.NoError(t, err)
	data, err := graph.EncodeBinary(g)
	require.NoError(t, err)
	roots, err := graph.DecodeBinary(data)
	require.NoError(t, err)
	q, err := New([]*meta.Registry{reg}).Import(roots[0])
	require.NoError(t, err)
	assert.True(t, model.Equal(p, q), "diffs: %v", model.Diff(p, q))
}

func TestOriginsAndDestinations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	src := project(reg)
	// derived tree: a copy of the first two todos, plus a placeholder
	dst := model.New(reg.MustType("TodoProject")).Set("name", "derived")
	a := model.New(reg.MustType("Todo")).Set("name", "A")
	b := model.New(reg.MustType("Todo")).Set("name", "B")
	ph := model.New(reg.MustType("Todo"))
	srcTodos := src.ChildList("todos")
	require.NoError(t, a.SetOrigin(srcTodos[0]))
	require.NoError(t, b.SetOrigin(srcTodos[1]))
	require.NoError(t, ph.SetOrigin(&model.Placeholder{
		Kind:    model.Failing,
		Source:  srcTodos[2],
		Message: "failed to transform eat",
	}))
	dst.Add("todos", a, b, ph)
	require.NoError(t, model.AssignParents(dst))
	srcTodos[0].SetDestination(a)
	srcTodos[1].SetDestination(model.CompositeDestination{Elements: []model.Destination{b, ph}})
	srcTodos[2].SetDestination(model.DroppedDestination{})
	//
	require.NoError(t, ids.AssignIDsToTree(src, ids.NewCache(ids.NewStructural("src"))))
	require.NoError(t, ids.AssignIDsToTree(dst, ids.NewCache(ids.NewStructural("dst"))))
	ex := New([]*meta.Registry{reg})
	gsrc, err := ex.Export(src)
	require.NoError(t, err)
	gdst, err := ex.Export(dst)
	require.NoError(t, err)
	phg := gdst.Children("todos")[2]
	ann := phg.Annotation(graph.PlaceholderClassifier)
	require.NotNil(t, ann)
	assert.Equal(t, "dst_todos_2_placeholder_annotation", ann.ID)
	require.Len(t, phg.ReferenceValues(graph.OriginKey), 1)
	assert.Equal(t, "src_todos_2", phg.ReferenceValues(graph.OriginKey)[0].TargetID())
	assert.NotNil(t, gsrc.Children("todos")[2].Annotation(graph.DroppedClassifier))
	//
	im := New([]*meta.Registry{reg})
	isrc, err := im.Import(roundTrip(t, gsrc))
	require.Error(t, err, "destinations in dst are unknown so far")
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	assert.Nil(t, isrc)
	//
	im = New([]*meta.Registry{reg}, IgnoreMissing(true))
	decoded := roundTrip(t, gsrc) // the converter holds graph nodes weakly
	isrc, err = im.Import(decoded)
	require.NoError(t, err)
	assert.Nil(t, isrc.ChildList("todos")[0].Destination())
	assert.Equal(t, model.DroppedDestination{}, isrc.ChildList("todos")[2].Destination())
	idst, err := im.Import(roundTrip(t, gdst))
	require.NoError(t, err)
	itodos, isrcTodos := idst.ChildList("todos"), isrc.ChildList("todos")
	assert.Same(t, isrcTodos[0], itodos[0].Origin())
	assert.Same(t, isrcTodos[1], itodos[1].Origin())
	p, ok := model.PlaceholderOf(itodos[2])
	require.True(t, ok)
	assert.Equal(t, model.Failing, p.Kind)
	assert.Equal(t, "failed to transform eat", p.Message)
	assert.Same(t, isrcTodos[2], p.Source)
	//
	// with a resolver, destinations can be found in the other direction
	resolver := ResolverFunc(func(id string) (*model.Node, error) {
		return model.Find(idst, id), nil
	})
	im2 := New([]*meta.Registry{reg}, WithResolver(resolver))
	isrc2, err := im2.Import(roundTrip(t, gsrc))
	require.NoError(t, err)
	assert.Same(t, itodos[0], isrc2.ChildList("todos")[0].Destination())
	cd, ok := isrc2.ChildList("todos")[1].Destination().(model.CompositeDestination)
	require.True(t, ok)
	require.Len(t, cd.Elements, 2)
	assert.Same(t, itodos[2], cd.Elements[1])
	runtime.KeepAlive(decoded)
}

func TestImportErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	c := New([]*meta.Registry{reg})
	_, err := c.Import(graph.NewNode("x", graph.Classifier{Language: "todo", Name: "Unknown"}))
	assert.True(t, errors.Is(err, ErrUnknownType))
	_, err = c.Import(graph.NewNode("x", graph.Classifier{Language: "todo", Name: "Named"}))
	assert.True(t, errors.Is(err, ErrInvalidGraph))
	bad := graph.NewNode("x", graph.Classifier{Language: "todo", Name: "Todo"})
	bad.SetProperty("prio", graph.Str("urgent"))
	_, err = c.Import(bad)
	assert.True(t, errors.Is(err, ErrCodec))
	two := graph.NewNode("y", graph.Classifier{Language: "todo", Name: "Todo"})
	two.AddChild("details", graph.NewNode("d1", graph.Classifier{Language: "todo", Name: "Details"}))
	two.AddChild("details", graph.NewNode("d2", graph.Classifier{Language: "todo", Name: "Details"}))
	_, err = c.Import(two)
	assert.True(t, errors.Is(err, ErrInvalidGraph))
	invalid := graph.NewNode("not valid", graph.Classifier{Language: "todo", Name: "Todo"})
	_, err = c.Import(invalid)
	assert.True(t, errors.Is(err, ids.ErrInvalidID))
	//
	n := model.New(reg.MustType("Todo")).Set("prio", "urgent")
	_, err = New([]*meta.Registry{reg}, WithIDProvider(ids.NewSequential(1))).Export(n)
	assert.True(t, errors.Is(err, ErrCodec))
	other, err := meta.NewBuilder("other").Type("Thing").Root().End().Registry()
	require.NoError(t, err)
	_, err = c.Export(model.New(other.MustType("Thing")))
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestGenericNodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	c := New([]*meta.Registry{reg}, WithIDProvider(ids.NewSequential(1)))
	n := model.New(reg.MustType(meta.GenericNodeType))
	g, err := c.Export(n)
	require.NoError(t, err)
	assert.Equal(t, GenericClassifier, g.Classifier)
	q, err := New([]*meta.Registry{reg}).Import(roundTrip(t, g))
	require.NoError(t, err)
	assert.Equal(t, meta.GenericNodeType, q.Type().Name)
}

func TestLanguageInterchange(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	reg := todoLanguage(t)
	l := ExportLanguage(reg, "1")
	assert.Equal(t, "todo", l.Name)
	assert.Nil(t, l.Concept(meta.GenericNodeType))
	require.NotNil(t, l.Concept("Todo"))
	assert.Equal(t, []string{"Named"}, l.Concept("Todo").Extends)
	var buf bytes.Buffer
	require.NoError(t, graph.EncodeLanguage(&buf, l))
	l2, err := graph.DecodeLanguage(&buf)
	require.NoError(t, err)
	reg2, err := ImportLanguage(l2)
	require.NoError(t, err)
	assert.Equal(t, reg.Name(), reg2.Name())
	for _, typ := range reg.Types() {
		typ2 := reg2.Type(typ.Name)
		require.NotNil(t, typ2, typ.Name)
		assert.Equal(t, typ.Abstract, typ2.Abstract)
		assert.Equal(t, typ.RootCapable, typ2.RootCapable)
		require.Len(t, typ2.Features(), len(typ.Features()))
		for i, f := range typ.Features() {
			assert.Equal(t, f.String(), typ2.Features()[i].String())
			assert.Equal(t, f.Optional, typ2.Features()[i].Optional)
		}
	}
	assert.Equal(t, []string{"low", "normal", "high"}, reg2.Enum("Prio").Literals)
	l.Concepts[0].Features = append(l.Concepts[0].Features, graph.FeatureDecl{Name: "x", Kind: "weird"})
	_, err = ImportLanguage(l)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.convert")
	defer teardown()
	//
	c := New(nil, FromConfig(testconfig.Conf{
		ConfIgnoreMissing: "true",
		ConfCacheSize:     32,
	}))
	assert.True(t, c.ignoreMissing)
	assert.Equal(t, 32, c.cacheSize)
	c = New(nil, FromConfig(testconfig.Conf{}))
	assert.False(t, c.ignoreMissing)
	assert.Equal(t, 256, c.cacheSize)
}
