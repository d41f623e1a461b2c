// Package lmstest runs an in-process imitation of the itslearning REST API
// for tests. It serves the directory, the token endpoint and the personal
// endpoints from fixtures, and counts requests per path.
package lmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// SelfURL in a tenant fixture's BaseUrl is replaced by the server URL.
const SelfURL = "{{self}}"

// Default fixture identities.
const (
	CustomerID = 4242
	SiteName   = "Example Upper School"
	Username   = "student"
	Password   = "correct horse"
	PersonID   = 777
)

// Paths served by the fake.
const (
	SearchPath        = "/restapi/sites/all/organisations/search/v1"
	TokenPath         = "/restapi/oauth2/token"
	PersonPath        = "/restapi/personal/person/v1"
	CoursesPath       = "/restapi/personal/courses/v1"
	TasksPath         = "/restapi/personal/tasks/v1"
	NotificationsPath = "/restapi/personal/notifications/v1"
	ThreadsPath       = "/restapi/personal/instantmessages/messagethreads/v1"
	NewsPath          = "/restapi/personal/notifications/stream/v1"
	UnreadThreadsPath = "/restapi/personal/instantmessages/messagethreads/unread/count/v1"
	UnreadNotesPath   = "/restapi/personal/notifications/unread/count/v1"
)

// SitePath returns the tenant metadata path of a customer id.
func SitePath(id int64) string {
	return fmt.Sprintf("/restapi/sites/%d/v1", id)
}

// Server is a fake LMS. Fixtures may be changed between requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	sites    []map[string]any
	tenants  map[string]any
	accounts map[string]string
	tokens   map[string]bool
	token    map[string]any
	payloads map[string]any
	statuses map[string]int
	calls    map[string]int
	queries  map[string]url.Values
	forms    map[string]url.Values
	cookies  map[string]string
}

// NewServer starts a fake populated with one organisation, one account and
// a default payload for every personal endpoint. It is closed on test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		sites: []map[string]any{
			{"CustomerId": CustomerID, "SiteName": SiteName},
		},
		tenants: map[string]any{
			strconv.Itoa(CustomerID): map[string]any{
				"CustomerId": CustomerID,
				"Title":      SiteName,
				"ShortName":  "eus",
				"BaseUrl":    SelfURL,
			},
		},
		accounts: map[string]string{Username: Password},
		tokens:   map[string]bool{},
		payloads: map[string]any{
			PersonPath:        Profile(),
			CoursesPath:       Entities(Course(1, "Mathematics")),
			TasksPath:         Entities(Task(10, "Essay", "Mathematics"), Task(11, "Worksheet", "Physics")),
			NotificationsPath: Entities(Notification(5)),
			ThreadsPath:       Entities(Thread(9)),
			NewsPath:          Entities(News(3, true)),
			UnreadThreadsPath: 2,
			UnreadNotesPath:   4,
		},
		statuses: map[string]int{},
		calls:    map[string]int{},
		queries:  map[string]url.Values{},
		forms:    map[string]url.Values{},
		cookies:  map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+SearchPath, s.handleSearch)
	mux.HandleFunc("GET /restapi/sites/{id}/v1", s.handleSite)
	mux.HandleFunc("POST "+TokenPath, s.handleToken)
	mux.HandleFunc("GET /restapi/personal/", s.handlePersonal)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.queries[r.URL.Path] = r.URL.Query()
		if c, err := r.Cookie("login"); err == nil {
			s.cookies[r.URL.Path] = c.Value
		}
		status, forced := s.statuses[r.URL.Path]
		s.mu.Unlock()

		if forced {
			writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSites replaces the directory search entities.
func (s *Server) SetSites(sites ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = sites
}

// SetTenant sets the metadata served for id. A nil tenant makes the
// endpoint answer with a JSON null.
func (s *Server) SetTenant(id int64, tenant map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant == nil {
		delete(s.tenants, strconv.FormatInt(id, 10))
		return
	}
	s.tenants[strconv.FormatInt(id, 10)] = tenant
}

// AddAccount registers credentials accepted by the token endpoint.
func (s *Server) AddAccount(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = password
}

// SetTokenResponse replaces the token endpoint body for valid credentials.
func (s *Server) SetTokenResponse(body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = body
	if tok, ok := body["access_token"].(string); ok {
		s.tokens[tok] = true
	}
}

// SetPayload replaces the body served on a personal path.
func (s *Server) SetPayload(path string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[path] = payload
}

// SetStatus forces every request on path to answer with status.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// PersonalCalls returns how many requests reached any personal endpoint.
func (s *Server) PersonalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for path, c := range s.calls {
		if strings.HasPrefix(path, "/restapi/personal/") {
			n += c
		}
	}
	return n
}

// LastQuery returns the query of the last request on path.
func (s *Server) LastQuery(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[path]
}

// LastForm returns the form of the last request on path.
func (s *Server) LastForm(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[path]
}

// LastCookie returns the login cookie of the last request on path.
func (s *Server) LastCookie(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookies[path]
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("searchText"))
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]map[string]any, 0, len(s.sites))
	for _, site := range s.sites {
		name, _ := site["SiteName"].(string)
		if q == "" || strings.Contains(strings.ToLower(name), q) {
			matches = append(matches, site)
		}
	}
	if len(matches) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, Entities(matches...))
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tenant, ok := s.tenants[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if m, ok := tenant.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			if v == SelfURL {
				v = s.URL
			}
			out[k] = v
		}
		tenant = out
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[r.URL.Path] = r.PostForm

	username := r.PostForm.Get("username")
	password, known := s.accounts[username]
	if r.PostForm.Get("grant_type") != "password" || !known || password != r.PostForm.Get("password") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
		return
	}
	if s.token != nil {
		writeJSON(w, http.StatusOK, s.token)
		return
	}
	access := "access-" + username
	s.tokens[access] = true
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": "refresh-" + username,
		"token_type":    "bearer",
		"expires_in":    3600,
	})
}

func (s *Server) handlePersonal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tokens[r.URL.Query().Get("access_token")] {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_token"})
		return
	}
	payload, ok := s.payloads[r.URL.Path]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
