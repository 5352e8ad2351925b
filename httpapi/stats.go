// Package httpapi exposes an operational status surface over HTTP:
// document count, compress mode and health, nothing else. spec.md §1 places the
// query front-end out of scope; this package deliberately stops short
// of it -- there is no search/lookup route here, only the kind of
// /stats endpoint the teacher's api.api package exposes alongside its
// (out-of-scope) lookup API.
package httpapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/net/context"

	"github.com/gorilla/mux"
	"github.com/lalinsky/ngramidx/postings"
)

// Stats reports the observable state of the index at the moment of
// the request.
type Stats struct {
	DocumentCount int    `json:"document_count"`
	Compress      string `json:"compress"`
}

// StatsSource supplies the data behind the /stats endpoint.
type StatsSource interface {
	DocumentCount(ctx context.Context) (int, error)
	CompressMode() postings.Mode
}

// Server is the thin admin HTTP surface described above.
type Server struct {
	router *mux.Router
	source StatsSource
}

// NewServer builds the router. Handler satisfies http.Handler.
func NewServer(source StatsSource) *Server {
	s := &Server{router: mux.NewRouter(), source: source}
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.source.DocumentCount(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mode := "none"
	if s.source.CompressMode() == postings.Golomb {
		mode = "golomb"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Stats{DocumentCount: count, Compress: mode})
}
