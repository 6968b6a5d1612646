package graph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	projectC = Classifier{Language: "todo", Name: "TodoProject"}
	todoC    = Classifier{Language: "todo", Name: "Todo"}
)

func sampleTree(n int) *Node {
	p := NewNode("p1", projectC)
	p.SetProperty("name", Str("home"))
	p.SetProperty(PositionKey, nil)
	for i := 1; i <= n; i++ {
		t := NewNode(fmt.Sprintf("p1_todos_%d", i), todoC)
		t.SetProperty("name", Str(fmt.Sprintf("todo-%d", i)))
		if i > 1 {
			t.SetReferenceValues("prerequisite", []ReferenceValue{{
				ResolveInfo: fmt.Sprintf("todo-%d", i-1),
				Target:      p.Children("todos")[i-2],
			}})
		}
		p.AddChild("todos", t)
	}
	p.SetReferenceValues("external", []ReferenceValue{
		{ResolveInfo: "elsewhere", Target: Proxy("other_1")},
		{ResolveInfo: "unresolved"},
	})
	p.AddAnnotation(&Annotation{
		ID:         "p1_placeholder_annotation",
		Classifier: PlaceholderClassifier,
		Properties: []Property{{Key: PlaceholderTypeKey, Value: Str("MissingTransformation")}},
	})
	return p
}

func encode(t *testing.T, roots ...*Node) []byte {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, roots...))
	return buf.Bytes()
}

func TestNodeFeatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	p := sampleTree(2)
	v, ok := p.Property("name")
	require.True(t, ok)
	assert.Equal(t, "home", *v)
	v, ok = p.Property(PositionKey)
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = p.Property("nope")
	assert.False(t, ok)
	p.SetProperty("name", Str("work"))
	assert.Len(t, p.Properties, 2)
	assert.Len(t, p.Children("todos"), 2)
	assert.Equal(t, p, p.Children("todos")[0].Parent)
	assert.Equal(t, "p1_todos_1", p.Children("todos")[1].ReferenceValues("prerequisite")[0].TargetID())
	assert.NotNil(t, p.Annotation(PlaceholderClassifier))
	assert.Nil(t, p.Annotation(DroppedClassifier))
	assert.True(t, Proxy("x").IsProxy())
	assert.Equal(t, "proxy(x)", Proxy("x").String())
	assert.Equal(t, "TodoProject#p1", p.String())
	ids := []string{}
	for _, n := range ThisAndDescendants(p) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"p1", "p1_todos_1", "p1_todos_2"}, ids)
}

func TestJSONRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	data := encode(t, sampleTree(3))
	require.NoError(t, ValidateJSON(data))
	roots, err := DecodeJSON(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	p := roots[0]
	assert.Equal(t, projectC, p.Classifier)
	todos := p.Children("todos")
	require.Len(t, todos, 3)
	assert.Same(t, todos[0], todos[1].ReferenceValues("prerequisite")[0].Target)
	ext := p.ReferenceValues("external")
	require.Len(t, ext, 2)
	assert.True(t, ext[0].Target.IsProxy())
	assert.Equal(t, "other_1", ext[0].TargetID())
	assert.Nil(t, ext[1].Target)
	assert.Equal(t, "unresolved", ext[1].ResolveInfo)
	assert.Equal(t, string(data), string(encode(t, roots...)))
}

func TestParentProxy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	sub := sampleTree(1).Children("todos")[0]
	data := encode(t, sub)
	assert.Contains(t, string(data), `"parent": "p1"`)
	roots, err := DecodeJSON(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.NotNil(t, roots[0].Parent)
	assert.True(t, roots[0].Parent.IsProxy())
	assert.Equal(t, "p1", roots[0].Parent.ID)
}

func TestSchemaValidation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	bad := NewNode("not a valid id", todoC)
	err := ValidateJSON(encode(t, bad))
	assert.True(t, errors.Is(err, ErrInvalidChunk), "expected schema violation, got %v", err)
	err = ValidateJSON([]byte(`{"nodes": []}`))
	assert.True(t, errors.Is(err, ErrInvalidChunk))
	err = ValidateJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	node := func(id, children, parent string) string {
		return fmt.Sprintf(`{"id":%q,"classifier":{"language":"todo","name":"Todo"},"properties":[],`+
			`"containments":[{"containment":"sub","children":[%s]}],"references":[],"annotations":[],"parent":%s}`,
			id, children, parent)
	}
	chunk := func(nodes ...string) string {
		return `{"serializationFormatVersion":"1","languages":["todo"],"nodes":[` + strings.Join(nodes, ",") + `]}`
	}
	for name, input := range map[string]string{
		"version":   `{"serializationFormatVersion":"0","nodes":[]}`,
		"dangling":  chunk(node("a", `"b"`, "null")),
		"duplicate": chunk(node("a", "", "null"), node("a", "", "null")),
		"twice":     chunk(node("a", `"c"`, "null"), node("b", `"c"`, "null"), node("c", "", `"a"`)),
		"cycle":     chunk(node("a", `"b"`, `"b"`), node("b", `"a"`, `"a"`)),
		"self":      chunk(node("a", `"a"`, `"a"`)),
		"parent":    chunk(node("a", `"b"`, "null"), node("b", "", `"c"`), node("c", "", "null")),
		"garbage":   `[1,2,3]`,
	} {
		_, err := DecodeJSON(strings.NewReader(input))
		assert.Error(t, err, name)
	}
	roots, err := DecodeJSON(strings.NewReader(chunk(node("a", `"b"`, "null"), node("b", "", `"a"`))))
	require.NoError(t, err)
	assert.Len(t, roots, 1)
}

func TestCheckContainment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	p := sampleTree(2)
	assert.NoError(t, CheckContainment(ThisAndDescendants(p)))
	a, b := NewNode("a", todoC), NewNode("b", todoC)
	a.AddChild("sub", b)
	b.Containments = append(b.Containments, Containment{Key: "sub", Children: []*Node{a}})
	err := CheckContainment([]*Node{a, b})
	assert.True(t, errors.Is(err, ErrContainment))
	c := NewNode("c", todoC)
	c.Containments = []Containment{{Key: "sub", Children: []*Node{c}}}
	assert.True(t, errors.Is(CheckContainment([]*Node{c}), ErrContainment))
	x, y, z := NewNode("x", todoC), NewNode("y", todoC), NewNode("z", todoC)
	x.AddChild("sub", z)
	y.Containments = []Containment{{Key: "sub", Children: []*Node{z}}}
	assert.True(t, errors.Is(CheckContainment([]*Node{x, y, z}), ErrContainment))
}

func TestBinaryRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	for _, size := range []int{0, 1, 100} {
		p := sampleTree(size)
		data, err := EncodeBinary(p)
		require.NoError(t, err)
		if size == 100 {
			assert.Equal(t, modeLZ4, data[0])
			assert.Less(t, len(data), len(encode(t, p)))
		}
		roots, err := DecodeBinary(data)
		require.NoError(t, err)
		require.Len(t, roots, 1)
		assert.Equal(t, string(encode(t, p)), string(encode(t, roots...)))
	}
	_, err := DecodeBinary([]byte{'X', 0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrFormat))
	_, err = DecodeBinary([]byte{'R'})
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestBinaryHeaderSize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodeBinary([]byte{modeLZ4, 0xff, 0xff, 0xff, 0x7f, 0})
	runtime.ReadMemStats(&after)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
	//
	data, err := EncodeBinary(sampleTree(100))
	require.NoError(t, err)
	require.Equal(t, modeLZ4, data[0])
	_, err = DecodeBinary(data[:len(data)/2])
	assert.True(t, errors.Is(err, ErrFormat))
	inflated := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(inflated[1:headerSize], uint32(maxLZ4Ratio*(len(data)-headerSize)+1))
	_, err = DecodeBinary(inflated)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestLanguageJSON(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.graph")
	defer teardown()
	//
	l := &Language{
		Name:    "todo",
		Version: "1",
		Concepts: []Concept{
			{Name: "TodoProject", Partition: true, Features: []FeatureDecl{
				{Name: "todos", Kind: "containment", Type: "Todo", Many: true},
			}},
			{Name: "Todo", Features: []FeatureDecl{{Name: "name", Kind: "property", Type: "string"}}},
		},
		Enums: []Enumeration{{Name: "Prio", Literals: []string{"low", "high"}}},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeLanguage(&buf, l))
	l2, err := DecodeLanguage(&buf)
	require.NoError(t, err)
	assert.Equal(t, l, l2)
	assert.NotNil(t, l2.Concept("Todo"))
	assert.Nil(t, l2.Concept("Nope"))
	assert.Equal(t, todoC, l2.Classifier("Todo"))
	_, err = DecodeLanguage(strings.NewReader(`{"concepts":[]}`))
	assert.Error(t, err)
}
