package repo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/npillmayer/arbor/convert"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/model"
)

// ChunkHeader is the response header carrying the ID of a chunk.
const ChunkHeader = "X-Arbor-Chunk"

// ErrNotFound is returned if a chunk or node is not stored in the repository.
var ErrNotFound = errors.New("not found in repository")

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("repository responded with %d: %s", e.Code, e.Message)
}

// Client talks to a repository server.
type Client struct {
	base string
	http *http.Client
}

var _ ids.IDSource = (*Client)(nil)

// NewClient creates a client for a server at baseURL. If hc is nil,
// http.DefaultClient is used.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimSuffix(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, e.Error)
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ProvideIDs is part of interface ids.IDSource.
func (c *Client) ProvideIDs(ctx context.Context, count int) ([]string, error) {
	var r idsResponse
	if err := c.getJSON(ctx, "/ids?count="+strconv.Itoa(count), &r); err != nil {
		return nil, err
	}
	if len(r.IDs) != count {
		return nil, fmt.Errorf("requested %d IDs, got %d", count, len(r.IDs))
	}
	return r.IDs, nil
}

// Chunks lists the IDs of all stored chunks.
func (c *Client) Chunks(ctx context.Context) ([]string, error) {
	var r chunksResponse
	if err := c.getJSON(ctx, "/chunks", &r); err != nil {
		return nil, err
	}
	return r.Chunks, nil
}

// StoreChunk stores a JSON chunk under the ID of its root node.
func (c *Client) StoreChunk(ctx context.Context, id string, data []byte) error {
	resp, err := c.do(ctx, http.MethodPut, "/chunks/"+url.PathEscape(id), data)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Chunk retrieves a JSON chunk.
func (c *Client) Chunk(ctx context.Context, id string) ([]byte, error) {
	return c.getBytes(ctx, "/chunks/"+url.PathEscape(id))
}

// ChunkOf retrieves the JSON chunk containing a node.
func (c *Client) ChunkOf(ctx context.Context, nodeID string) ([]byte, error) {
	return c.getBytes(ctx, "/nodes/"+url.PathEscape(nodeID))
}

// Delete removes a chunk.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/chunks/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// --- ASTs ------------------------------------------------------------------

// StoreAST exports an AST and stores it under the ID of its root. Nodes
// without an ID get one from the converter.
func (c *Client) StoreAST(ctx context.Context, conv *convert.Converter, root *model.Node) error {
	g, err := conv.Export(root)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = graph.EncodeJSON(&buf, g); err != nil {
		return err
	}
	return c.StoreChunk(ctx, g.ID, buf.Bytes())
}

// RetrieveAST retrieves a stored AST and imports it.
func (c *Client) RetrieveAST(ctx context.Context, conv *convert.Converter, id string) (*model.Node, error) {
	data, err := c.Chunk(ctx, id)
	if err != nil {
		return nil, err
	}
	return importRoot(conv, data, id)
}

func importRoot(conv *convert.Converter, data []byte, id string) (*model.Node, error) {
	roots, err := graph.DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if root.ID == id {
			return conv.Import(root)
		}
	}
	return nil, fmt.Errorf("%w: chunk has no root %s", graph.ErrFormat, id)
}

// NodeResolver returns a resolver retrieving nodes from the repository, to
// be used with convert.WithResolver. Retrieved chunks are imported by a
// converter of their own, created from languages and opts.
func (c *Client) NodeResolver(ctx context.Context, languages []*meta.Registry, opts ...convert.Option) convert.NodeResolver {
	conv := convert.New(languages, opts...)
	return convert.ResolverFunc(func(id string) (*model.Node, error) {
		resp, err := c.do(ctx, http.MethodGet, "/nodes/"+url.PathEscape(id), nil)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		root, err := importRoot(conv, data, resp.Header.Get(ChunkHeader))
		if err != nil {
			return nil, err
		}
		tracer().P("node", id).Debugf("retrieved from repository")
		return model.Find(root, id), nil
	})
}
