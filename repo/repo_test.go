package repo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npillmayer/arbor/convert"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/arbor/todo"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const errands = `project "My errands list" {
  todo milk "Buy milk"
  todo garbage "Take the garbage out" after milk
}`

func setup(t *testing.T, opts ...Option) (*httptest.Server, *Client) {
	srv := httptest.NewServer(NewServer(opts...))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL+"/", srv.Client())
}

func languages() []*meta.Registry {
	return []*meta.Registry{todo.Language()}
}

func loadErrands(t *testing.T) *model.Node {
	res, err := todo.LoadString("errands", errands)
	require.NoError(t, err)
	require.False(t, res.HasErrors())
	return res.AST
}

func TestIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	_, client := setup(t)
	ctx := context.Background()
	batch, err := client.ProvideIDs(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, batch)
	root := loadErrands(t)
	require.NoError(t, ids.AssignIDsToTree(root, ids.AssignFromSource(ctx, client, 2)))
	assert.Equal(t, "r-4", root.ID())
	assert.Equal(t, "r-6", root.ChildList("todos")[1].ID())
	_, err = client.ProvideIDs(ctx, 0)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}

func TestIDPrefixFromConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	conf := testconfig.Conf{ConfIDPrefix: "todo_"}
	_, client := setup(t, FromConfig(conf), IDPrefix("not valid"))
	batch, err := client.ProvideIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"todo_1"}, batch)
}

func TestStoreAndRetrieve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	_, client := setup(t)
	ctx := context.Background()
	root := loadErrands(t)
	conv := convert.New(languages(), convert.WithIDProvider(&ids.Structural{Source: ids.OriginSource{}}))
	require.NoError(t, client.StoreAST(ctx, conv, root))
	assert.Equal(t, "errands", root.ID())
	chunks, err := client.Chunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"errands"}, chunks)
	// storing again replaces the chunk
	require.NoError(t, client.StoreAST(ctx, conv, root))
	back, err := client.RetrieveAST(ctx, convert.New(languages()), "errands")
	require.NoError(t, err)
	assert.True(t, model.Equal(root, back), "diff: %v", model.Diff(root, back))
	data, err := client.ChunkOf(ctx, "errands_todos_1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errands_todos_1"`)
	//
	require.NoError(t, client.Delete(ctx, "errands"))
	_, err = client.Chunk(ctx, "errands")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = client.ChunkOf(ctx, "errands_todos_1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(client.Delete(ctx, "errands"), ErrNotFound))
}

func TestRejectedChunks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	_, client := setup(t)
	ctx := context.Background()
	var statusErr *StatusError
	err := client.StoreChunk(ctx, "x", []byte(`{"nodes": 42}`))
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	//
	root := loadErrands(t)
	conv := convert.New(languages(), convert.WithIDProvider(&ids.Structural{Source: ids.OriginSource{}}))
	require.NoError(t, client.StoreAST(ctx, conv, root))
	data, err := client.Chunk(ctx, "errands")
	require.NoError(t, err)
	err = client.StoreChunk(ctx, "other", data)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code, "chunk has no root 'other'")
}

func TestNodeResolver(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	_, client := setup(t)
	ctx := context.Background()
	original := loadErrands(t)
	conv := convert.New(languages(), convert.WithIDProvider(&ids.Structural{Source: ids.OriginSource{}}))
	require.NoError(t, client.StoreAST(ctx, conv, original))
	// a derived AST with an origin in the stored one
	reg := todo.Language()
	derived := model.New(reg.MustType("TodoProject")).Set("name", "derived")
	dtodo := model.New(reg.MustType("Todo")).Set("name", "milk2")
	require.NoError(t, dtodo.SetOrigin(original.ChildList("todos")[0]))
	derived.Add("todos", dtodo)
	require.NoError(t, model.AssignParents(derived))
	require.NoError(t, client.StoreAST(ctx, convert.New(languages()), derived))
	//
	importer := convert.New(languages(), convert.WithResolver(client.NodeResolver(ctx, languages())))
	back, err := client.RetrieveAST(ctx, importer, "root")
	require.NoError(t, err)
	origin, ok := back.ChildList("todos")[0].Origin().(*model.Node)
	require.True(t, ok)
	assert.Equal(t, "errands_todos", origin.ID())
	assert.Equal(t, "milk", origin.Get("name"))
	// without the repository, the origin cannot be found
	_, err = client.RetrieveAST(ctx, convert.New(languages()), "root")
	assert.True(t, errors.Is(err, convert.ErrUnresolvedReference))
}

func TestMetrics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.repo")
	defer teardown()
	//
	srv, client := setup(t)
	ctx := context.Background()
	_, err := client.ProvideIDs(ctx, 5)
	require.NoError(t, err)
	_, _ = client.Chunk(ctx, "nothing")
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "arbor_repo_ids_issued_total 5")
	assert.Contains(t, text, `arbor_repo_requests_total{code="404",method="GET",route="/chunks/{id}"} 1`)
	assert.True(t, strings.Contains(text, "arbor_repo_chunks 0"))
}
