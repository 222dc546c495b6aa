// Package remotetest provides an in-process catalog service for tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/runger/selact/internal/remote"
)

// Server is a fake catalog service backed by an in-memory list.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	providers []remote.Provider
	initial   []int64
	nextID    int64
	searches  []remote.Query
	uses      []int64
	obsoletes []int64
	published []remote.Submission

	// Hook, when set, runs before every request is handled. Tests use it to
	// block or fail specific requests.
	Hook func(r *http.Request) (status int, block <-chan struct{})
}

// NewServer starts a server seeded with providers. It is closed when the
// test ends.
func NewServer(t testing.TB, providers ...remote.Provider) *Server {
	t.Helper()
	s := &Server{providers: append([]remote.Provider(nil), providers...), nextID: 1000}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/provider", s.handleSearch)
	mux.HandleFunc("POST /api/provider", s.handlePublish)
	mux.HandleFunc("GET /api/provider/init", s.handleInit)
	mux.HandleFunc("GET /api/provider/{id}/use", s.handleCounter(true))
	mux.HandleFunc("GET /api/provider/{id}/obsolete", s.handleCounter(false))
	s.Server = httptest.NewServer(s.hooked(mux))
	t.Cleanup(s.Close)
	return s
}

// Numbered returns n providers labelled "P1".."Pn" with ids 1..n, most
// popular first.
func Numbered(n int) []remote.Provider {
	out := make([]remote.Provider, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = remote.Provider{
			ProviderID: id,
			Label:      "P" + strconv.Itoa(i+1),
			Homepage:   "https://p" + strconv.Itoa(i+1) + ".example",
			Tag:        "general",
			Link:       "https://p" + strconv.Itoa(i+1) + ".example/?q={selectedText}",
			UsageCount: int64(n - i),
		}
	}
	return out
}

// SetInitial marks which providers /api/provider/init returns.
func (s *Server) SetInitial(ids ...int64) {
	s.mu.Lock()
	s.initial = ids
	s.mu.Unlock()
}

// Searches returns the search queries received so far.
func (s *Server) Searches() []remote.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Query(nil), s.searches...)
}

// Uses returns the provider ids whose use counter was bumped.
func (s *Server) Uses() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.uses...)
}

// Obsoletes returns the provider ids reported obsolete.
func (s *Server) Obsoletes() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.obsoletes...)
}

// Published returns the submissions received.
func (s *Server) Published() []remote.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Submission(nil), s.published...)
}

func (s *Server) hooked(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Hook != nil {
			status, block := s.Hook(r)
			if block != nil {
				select {
				case <-block:
				case <-r.Context().Done():
					return
				}
			}
			if status != 0 && status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		writeEnvelope(w, 1, "Invalid query parameters", nil)
		return
	}
	size, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil || size < 1 {
		writeEnvelope(w, 1, "Invalid query parameters", nil)
		return
	}
	keyword := strings.ToLower(q.Get("keyword"))
	tag := q.Get("tag")

	s.mu.Lock()
	s.searches = append(s.searches, remote.Query{Keyword: q.Get("keyword"), Tag: tag, Page: page, PageSize: size})
	var matched []remote.Provider
	for _, p := range s.providers {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Label), keyword) &&
			!strings.Contains(strings.ToLower(p.Homepage), keyword) {
			continue
		}
		if tag != "" && p.Tag != tag {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score() > matched[j].Score() })

	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	writeEnvelope(w, 0, "Search results retrieved successfully", remote.Page{
		Providers: append([]remote.Provider{}, matched[start:end]...),
		HasMore:   end < len(matched),
	})
}

func (s *Server) handleInit(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	var out []remote.Provider
	for _, id := range s.initial {
		for _, p := range s.providers {
			if p.ProviderID == id {
				out = append(out, p)
			}
		}
	}
	s.mu.Unlock()
	writeEnvelope(w, 0, "Initialized provider list retrieved successfully", map[string]any{"providers": out})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var sub remote.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeEnvelope(w, 1, "Invalid request data", nil)
		return
	}
	if !strings.Contains(sub.Link, "{selectedText}") {
		writeEnvelope(w, 1, "Link must contain {selectedText}", nil)
		return
	}

	s.mu.Lock()
	s.nextID++
	created := remote.Provider{
		ProviderID: s.nextID,
		Label:      sub.Label,
		Homepage:   sub.Homepage,
		Icon:       sub.Icon,
		Tag:        sub.Tag,
		Link:       sub.Link,
	}
	s.providers = append(s.providers, created)
	s.published = append(s.published, sub)
	s.mu.Unlock()

	writeEnvelope(w, 0, "Data inserted successfully", created)
}

func (s *Server) handleCounter(use bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeEnvelope(w, 1, "Invalid request data", nil)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.providers {
			if s.providers[i].ProviderID != id {
				continue
			}
			if use {
				s.providers[i].UsageCount++
				s.uses = append(s.uses, id)
			} else {
				s.providers[i].ObsoleteCount++
				s.obsoletes = append(s.obsoletes, id)
			}
			writeEnvelope(w, 0, "Count incremented successfully", []remote.Provider{s.providers[i]})
			return
		}
		writeEnvelope(w, 1, "Provider not found", nil)
	}
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"data":    data,
		"message": message,
	})
}
