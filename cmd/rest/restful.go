package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jdevelop/fs4search/fsqapi"
	"github.com/jdevelop/fs4search/internal/config"
	"github.com/jdevelop/fs4search/internal/metrics"
	"github.com/julienschmidt/httprouter"
)

var (
	port   = flag.Int("port", 8080, "port to listen on")
	host   = flag.String("host", "localhost", "host to listen on")
	prefix = flag.String("prefix", "/api/", "url prefix, must end with /")
	dir    = flag.String("config", config.DefaultConfigPath, "directory holding the config file")
)

type server struct {
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.RWMutex
	client *fsqapi.Client
}

func (s *server) api() *fsqapi.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Status    int    `json:"upstreamStatus,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

const requestIDHeader = "X-Request-ID"

// withRequestID tags every request with an identifier for the logs.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
			r.Header.Set(requestIDHeader, rid)
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var serr *fsqapi.SearchError
	if !errors.As(err, &serr) {
		return http.StatusInternalServerError
	}
	switch serr.Kind {
	case fsqapi.InvalidParameters:
		return http.StatusBadRequest
	case fsqapi.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: r.Header.Get(requestIDHeader)}
	var serr *fsqapi.SearchError
	if errors.As(err, &serr) {
		resp.Kind = serr.Kind.String()
		resp.Status = serr.StatusCode
	}
	status := statusFor(err)
	s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "error", err, "requestId", resp.RequestID)
	writeJSON(w, status, resp)
}

func (s *server) search(ctx context.Context, r *http.Request) (*fsqapi.SearchResult, error) {
	params, err := fsqapi.ParseParams(r.URL.Query())
	if err != nil {
		return nil, &fsqapi.SearchError{Kind: fsqapi.InvalidParameters, Err: err}
	}

	start := time.Now()
	res, err := s.api().SearchVenues(ctx, params)
	metrics.RecordSearch(time.Since(start), res, err)
	return res, err
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res, err := s.search(r.Context(), r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Err() != nil {
		w.Header().Set("X-Result-Warning", res.Err().Error())
	}
	writeJSON(w, http.StatusOK, res.Businesses())
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res, err := s.search(r.Context(), r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	root, idToName, err := fsqapi.ResolveCategories(r.Context(), s.api())
	if err != nil {
		s.logger.Warn("could not fetch categories", "error", err)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Disposition", "attachment; filename=venues.kml")
	w.Header().Add("Content-Type", "application/vnd.google-earth.kml+xml")
	fsqapi.BuildKML(res, root, idToName).WriteIndent(w, "", "  ")
}

func (s *server) handlePreauth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	type PreauthResponse struct {
		Url string `json:"auth"`
	}
	writeJSON(w, http.StatusOK, PreauthResponse{Url: fsqapi.PreAuthenticate(s.cfg.OAuth())})
}

func (s *server) handleAuth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	codeStr := r.URL.Query().Get("code")
	if codeStr == "" {
		http.Error(w, "missing code query parameter", http.StatusBadRequest)
		return
	}
	token, err := fsqapi.Authenticate(r.Context(), s.cfg.OAuth(), codeStr)
	if err != nil {
		s.logger.Error("authenticate failed", "error", err)
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}
	if err := s.cfg.SaveToken(token); err != nil {
		s.logger.Error("failed to write config", "error", err)
		http.Error(w, "failed to persist token", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.client = s.cfg.Client(s.logger)
	s.mu.Unlock()
	s.logger.Info("token saved successfully")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) routes(prefix string) http.Handler {
	svc := httprouter.New()
	svc.GET(prefix+"preauth", s.handlePreauth)
	svc.GET(prefix+"auth", s.handleAuth)
	svc.GET(prefix+"search", s.handleSearch)
	svc.GET(prefix+"export", s.handleExport)
	svc.Handler(http.MethodGet, "/metrics", metrics.Handler())
	return withRequestID(svc)
}

func main() {

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*dir)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	s := &server{cfg: cfg, client: cfg.Client(logger), logger: logger}

	addr := fmt.Sprintf("%s:%d", *host, *port)
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, s.routes(*prefix)); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}

}
