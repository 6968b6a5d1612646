package todo

import (
	"testing"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/arbor/transform"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const errands = `// things to do today
project "My errands list" {
  todo milk "Buy milk"
  todo garbage "Take the garbage out" after milk
  todo walk
}
`

func issueTypes(issues []arbor.Issue) []arbor.IssueType {
	var types []arbor.IssueType
	for _, is := range issues {
		types = append(types, is.Type)
	}
	return types
}

func TestScanner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	lm, err := Lexer()
	require.NoError(t, err)
	sc, err := lm.Scanner(`project "p" { todo todos after x }`)
	require.NoError(t, err)
	var kinds []arbor.TokType
	for tok := sc.NextToken(); !tok.IsEOF(); tok = sc.NextToken() {
		kinds = append(kinds, tok.TokType())
	}
	assert.Equal(t, []arbor.TokType{PROJECT, STRING, LBRACE, TODO, IDENT, AFTER, IDENT, RBRACE}, kinds)
	assert.Equal(t, "end of input", TokenName(cst.EOF))
	assert.Equal(t, `"after"`, TokenName(AFTER))
}

func TestParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	tree, issues, err := Parse(&cst.Source{ID: "errands", Text: errands})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, TagProject, tree.Tag)
	todos := tree.ChildrenTagged(TagTodo)
	require.Len(t, todos, 3)
	assert.Equal(t, `todo milk "Buy milk"`, todos[0].SourceText())
	assert.Equal(t, "milk", todos[1].Child(TagPrerequisite).Lexeme())
	assert.Nil(t, todos[2].Child(TagDescription))
	assert.Equal(t, 3, todos[0].Position().Start.Line)
	assert.Equal(t, "errands", todos[0].SourceID())
	assert.Empty(t, cst.Errors(tree))
}

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	res, err := LoadString("errands", errands)
	require.NoError(t, err)
	assert.False(t, res.HasErrors(), "issues: %v", res.Issues)
	root := res.AST
	assert.Equal(t, "TodoProject", root.Type().Name)
	assert.Equal(t, "My errands list", root.Get("name"))
	todos := root.ChildList("todos")
	require.Len(t, todos, 3)
	assert.Equal(t, "Take the garbage out", todos[1].Get("description"))
	assert.Equal(t, "walk", todos[2].Get("description"))
	assert.Equal(t, todos[0], todos[1].Ref("prerequisite").Referred)
	assert.Nil(t, todos[0].Ref("prerequisite"))
	assert.True(t, model.HasValidParents(root))
	assert.Equal(t, 3, todos[0].Position().Start.Line)
	// structural IDs derive from the source the AST stems from
	p := ids.NewCache(&ids.Structural{Source: ids.OriginSource{}})
	require.NoError(t, ids.AssignIDsToTree(root, p))
	assert.Equal(t, "errands", root.ID())
	assert.Equal(t, "errands_todos_1", todos[1].ID())
}

func TestSyntaxErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	res, err := LoadString("broken", `project "Broken" {
  todo "no name"
  todo ok after missing
}`)
	require.NoError(t, err)
	assert.True(t, res.HasErrors())
	assert.Equal(t, []arbor.IssueType{arbor.Syntactic, arbor.Translation, arbor.Semantic}, issueTypes(res.Issues))
	todos := res.AST.ChildList("todos")
	require.Len(t, todos, 2)
	ph, ok := model.PlaceholderOf(todos[0])
	require.True(t, ok)
	assert.Equal(t, model.Failing, ph.Kind)
	assert.Equal(t, "ok", todos[1].Get("name"))
	assert.False(t, todos[1].Ref("prerequisite").Retrieved())
	assert.Len(t, cst.Errors(res.Tree), 1)
}

func TestRecovery(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	res, err := LoadString("open", `project "Open" { todo a todo b after a`)
	require.NoError(t, err)
	assert.Equal(t, []arbor.IssueType{arbor.Syntactic}, issueTypes(res.Issues))
	assert.Len(t, res.AST.ChildList("todos"), 2)
	//
	res, err = LoadString("junk", `project "Junk" { after todo a }`)
	require.NoError(t, err)
	assert.Equal(t, []arbor.IssueType{arbor.Syntactic, arbor.Translation}, issueTypes(res.Issues))
	assert.Len(t, res.AST.ChildList("todos"), 2)
	//
	res, err = LoadString("headless", `todo a`)
	require.NoError(t, err)
	_, ok := model.PlaceholderOf(res.AST)
	assert.True(t, ok)
	assert.Equal(t, "TodoProject", res.AST.Type().Name)
	//
	res, err = LoadString("lexical", `project "Lex" { todo a ? }`)
	require.NoError(t, err)
	assert.Contains(t, issueTypes(res.Issues), arbor.Lexical)
	assert.Len(t, res.AST.ChildList("todos"), 1)
}

func TestStrictLoading(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	_, err := NewLoader(transform.Strict()).Load(&cst.Source{ID: "s", Text: `project "S" { todo }`})
	var ruleErr *transform.RuleError
	assert.ErrorAs(t, err, &ruleErr)
}

func TestLibraries(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.todo")
	defer teardown()
	//
	lib, err := LoadString("errands", errands)
	require.NoError(t, err)
	loader := NewLoader().AddLibrary(lib.AST)
	res, err := loader.Load(&cst.Source{ID: "weekend", Text: `project "Weekend" {
  todo cake "Bake a cake" after milk
  todo walk "Long walk"
  todo rest after walk
}`})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	libTodos := lib.AST.ChildList("todos")
	todos := res.AST.ChildList("todos")
	assert.Equal(t, libTodos[0], todos[0].Ref("prerequisite").Referred)
	assert.Equal(t, todos[1], todos[2].Ref("prerequisite").Referred, "local todos shadow library todos")
}
