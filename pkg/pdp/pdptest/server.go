// Package pdptest runs an in-process Policy Decision Point that speaks the
// OPA data API, for tests of code built on pkg/pdp.
package pdptest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"
)

const dataAPIPrefix = "/v1/data"

// Server evaluates rego policies for POSTed inputs. Any path is accepted;
// "/authz" and "/v1/data/authz" both query data.authz.
type Server struct {
	*httptest.Server

	mu         sync.RWMutex
	modules    map[string]*ast.Module
	compiler   *ast.Compiler
	store      storage.Store
	queryCache *queryCache
	requests   atomic.Int64
	failNext   atomic.Int64
}

// NewServer starts a server with no policies loaded. Close it when done.
func NewServer() *Server {
	compiler := ast.NewCompiler()
	compiler.Compile(map[string]*ast.Module{})

	s := &Server{
		modules:    map[string]*ast.Module{},
		compiler:   compiler,
		store:      inmem.New(),
		queryCache: newQueryCache(),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handleDecision))
	return s
}

// LoadPolicy adds or replaces the rego module stored under name. A module
// that fails to parse or compile leaves the loaded policies unchanged.
func (s *Server) LoadPolicy(ctx context.Context, name string, module string) error {
	parsed, err := ast.ParseModule(name, module)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	modules := make(map[string]*ast.Module, len(s.modules)+1)
	for k, v := range s.modules {
		modules[k] = v
	}
	modules[name] = parsed

	compiler := ast.NewCompiler()
	if compiler.Compile(modules); compiler.Failed() {
		return compiler.Errors
	}

	txn, err := s.store.NewTransaction(ctx, storage.TransactionParams{Write: true})
	if err != nil {
		return err
	}

	err = s.store.UpsertPolicy(ctx, txn, name, []byte(module))
	if err != nil {
		s.store.Abort(ctx, txn)
		return err
	}

	err = s.store.Commit(ctx, txn)
	if err != nil {
		return err
	}

	s.modules = modules
	s.compiler = compiler
	s.queryCache.Clear()
	return nil
}

// FailNext makes the next n requests fail at the connection level: the
// server closes the connection without writing a response.
func (s *Server) FailNext(n int) {
	s.failNext.Store(int64(n))
}

// Requests is the number of requests received, failed ones included.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Hostname is the server URL without the port, e.g. "http://127.0.0.1".
func (s *Server) Hostname() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	return u.Scheme + "://" + u.Hostname()
}

func (s *Server) Port() int {
	u, err := url.Parse(s.URL)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(u.Port())
	return port
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if s.failNext.Add(-1) >= 0 {
		s.dropConnection(w)
		return
	}
	s.failNext.Store(0)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported")
		return
	}

	var body struct {
		Input interface{} `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	ref, err := parseDataPath(strings.TrimPrefix(r.URL.Path, dataAPIPrefix))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	s.mu.RLock()
	compiler := s.compiler
	s.mu.RUnlock()

	pq, err := s.queryCache.Get(ref.String(), func(q string) (*rego.PreparedEvalQuery, error) {
		pq, err := rego.New(
			rego.Query(q),
			rego.Compiler(compiler),
			rego.Store(s.store),
		).PrepareForEval(r.Context())
		if err != nil {
			return nil, err
		}

		return &pq, nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	rs, err := pq.Eval(r.Context(), rego.EvalInput(body.Input))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	// an undefined decision has no result member, as in OPA
	resp := map[string]interface{}{"decision_id": uuid.NewString()}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		resp["result"] = rs[0].Expressions[0].Value
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("pdptest: response writer does not support hijacking")
	}

	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseDataPath(s string) (ast.Ref, error) {
	s = "/" + strings.TrimPrefix(s, "/")

	path, ok := storage.ParsePath(s)
	if !ok {
		return nil, fmt.Errorf("invalid path: %s", s)
	}

	return path.Ref(ast.DefaultRootDocument), nil
}
