package repo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/schuko"
)

// MaxChunkSize is the maximum size of a chunk accepted by a server.
const MaxChunkSize = 64 << 20

// MaxIDBatch is the maximum number of IDs handed out with a single request.
const MaxIDBatch = 100000

// Configuration keys read by FromConfig.
const (
	ConfIDPrefix = "repo.id-prefix"
)

var errConflict = errors.New("node is already stored in another chunk")

// Server is an in-process model repository. It implements http.Handler.
type Server struct {
	router  *mux.Router
	mx      sync.RWMutex
	chunks  map[string][]byte // chunk ID → JSON chunk
	owner   map[string]string // node ID → chunk ID
	prefix  string
	counter uint64
	metrics *metrics
}

// Option configures a server.
type Option func(*Server)

// IDPrefix sets the prefix of IDs handed out by a server. It must be a valid
// node ID itself.
func IDPrefix(prefix string) Option {
	return func(s *Server) {
		if ids.ValidID(prefix) {
			s.prefix = prefix
		} else {
			tracer().Errorf("ignoring invalid ID prefix %q", prefix)
		}
	}
}

// FromConfig reads options from a configuration.
func FromConfig(conf schuko.Configuration) Option {
	return func(s *Server) {
		if conf != nil && conf.IsSet(ConfIDPrefix) {
			IDPrefix(conf.GetString(ConfIDPrefix))(s)
		}
	}
}

// NewServer creates an empty repository.
func NewServer(opts ...Option) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		chunks:  make(map[string][]byte),
		owner:   make(map[string]string),
		prefix:  "r-",
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metrics.instrument)
	s.router.HandleFunc("/ids", s.handleIDs).Methods("GET")
	s.router.HandleFunc("/chunks", s.handleList).Methods("GET")
	s.router.HandleFunc("/chunks/{id}", s.handleStore).Methods("PUT")
	s.router.HandleFunc("/chunks/{id}", s.handleRetrieve).Methods("GET")
	s.router.HandleFunc("/chunks/{id}", s.handleDelete).Methods("DELETE")
	s.router.HandleFunc("/nodes/{id}", s.handleNode).Methods("GET")
	s.router.Handle("/metrics", s.metrics.handler()).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// --- Handlers --------------------------------------------------------------

type idsResponse struct {
	IDs []string `json:"ids"`
}

type chunksResponse struct {
	Chunks []string `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		tracer().Errorf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	tracer().P("code", code).Infof("%v", err)
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request) {
	count := 1
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 || n > MaxIDBatch {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid count %q", c))
			return
		}
		count = n
	}
	s.mx.Lock()
	resp := idsResponse{IDs: make([]string, count)}
	for i := range resp.IDs {
		s.counter++
		resp.IDs[i] = s.prefix + strconv.FormatUint(s.counter, 10)
	}
	s.mx.Unlock()
	s.metrics.ids.Add(float64(count))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mx.RLock()
	resp := chunksResponse{Chunks: make([]string, 0, len(s.chunks))}
	for id := range s.chunks {
		resp.Chunks = append(resp.Chunks, id)
	}
	s.mx.RUnlock()
	sort.Strings(resp.Chunks)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxChunkSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err = graph.ValidateJSON(data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	roots, err := graph.DecodeJSON(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var nodeIDs []string
	found := false
	for _, root := range roots {
		found = found || root.ID == id
		for _, n := range graph.ThisAndDescendants(root) {
			nodeIDs = append(nodeIDs, n.ID)
		}
	}
	if !found {
		writeError(w, http.StatusBadRequest, fmt.Errorf("chunk has no root node %s", id))
		return
	}
	replaced, err := s.store(id, data, nodeIDs)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	s.metrics.bytes.Add(float64(len(data)))
	tracer().P("chunk", id).Infof("stored %d nodes", len(nodeIDs))
	if replaced {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) store(id string, data []byte, nodeIDs []string) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	for _, nid := range nodeIDs {
		if owner, ok := s.owner[nid]; ok && owner != id {
			return false, fmt.Errorf("%w: %s is part of %s", errConflict, nid, owner)
		}
	}
	_, replaced := s.chunks[id]
	s.drop(id)
	s.chunks[id] = data
	for _, nid := range nodeIDs {
		s.owner[nid] = id
	}
	s.updateGauges()
	return replaced, nil
}

// drop removes a chunk and its node index entries. s.mx must be held.
func (s *Server) drop(id string) bool {
	if _, ok := s.chunks[id]; !ok {
		return false
	}
	delete(s.chunks, id)
	for nid, owner := range s.owner {
		if owner == id {
			delete(s.owner, nid)
		}
	}
	return true
}

func (s *Server) updateGauges() {
	s.metrics.chunks.Set(float64(len(s.chunks)))
	s.metrics.nodes.Set(float64(len(s.owner)))
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mx.RLock()
	data, ok := s.chunks[id]
	s.mx.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no chunk %s", id))
		return
	}
	writeChunk(w, id, data)
}

func writeChunk(w http.ResponseWriter, id string, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ChunkHeader, id)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		tracer().Errorf("writing chunk %s: %v", id, err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mx.Lock()
	ok := s.drop(id)
	s.updateGauges()
	s.mx.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no chunk %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mx.RLock()
	owner, ok := s.owner[id]
	data := s.chunks[owner]
	s.mx.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no node %s", id))
		return
	}
	writeChunk(w, owner, data)
}
