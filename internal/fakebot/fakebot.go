// Package fakebot serves a local imitation of a chatbot's page: a login form,
// a logged-in home, and a chat widget whose replies arrive over a WebSocket.
// Its markup matches the default selectors, so a run against it needs only
// URLs and credentials.
package fakebot

import (
	_ "embed"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed pages/login.html
var loginHTML string

//go:embed pages/home.html
var homeHTML string

//go:embed pages/page.html
var pageHTML string

const (
	SessionCookie     = "c_user"
	DefaultReplyDelay = 300 * time.Millisecond
	DefaultFallback   = "Sorry, I didn't catch that."
)

// Rule answers any message containing Contains, case-insensitively. An empty
// Reply means the bot stays silent.
type Rule struct {
	Contains string `yaml:"contains" json:"contains"`
	Reply    string `yaml:"reply" json:"reply"`
}

func DefaultRules() []Rule {
	return []Rule{
		{Contains: "hello", Reply: "Hi there! How can I help?"},
		{Contains: "hours", Reply: "We are open from 9am to 5pm, Monday to Friday."},
		{Contains: "bye", Reply: "Goodbye! Have a great day."},
	}
}

// LoadRules reads a YAML list of rules.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Contains) == "" {
			return nil, fmt.Errorf("parse rules %s: rule %d has no contains", path, i+1)
		}
	}
	return rules, nil
}

type Server struct {
	Email    string
	Password string
	Rules    []Rule
	// Fallback answers messages no rule matches. Empty means silence.
	Fallback   string
	ReplyDelay time.Duration

	mu       sync.Mutex
	sessions map[string]struct{}
	logins   int
}

// New returns a server that accepts the given credentials and answers with
// DefaultRules.
func New(email, password string) *Server {
	return &Server{
		Email:      email,
		Password:   password,
		Rules:      DefaultRules(),
		Fallback:   DefaultFallback,
		ReplyDelay: DefaultReplyDelay,
		sessions:   map[string]struct{}{},
	}
}

// Reply picks the answer for message. ok is false when the bot stays silent.
func (s *Server) Reply(message string) (reply string, ok bool) {
	lower := strings.ToLower(message)
	for _, r := range s.Rules {
		if strings.Contains(lower, strings.ToLower(r.Contains)) {
			return r.Reply, r.Reply != ""
		}
	}
	return s.Fallback, s.Fallback != ""
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /home", s.requireSession(s.servePage(homeHTML)))
	mux.HandleFunc("GET /page", s.requireSession(s.servePage(pageHTML)))
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return loggingMiddleware(mux)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.loggedIn(r) {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	msg := ""
	if r.URL.Query().Get("error") != "" {
		msg = `<p class="error">` + html.EscapeString("The email or password you entered is incorrect.") + `</p>`
	}
	writeHTML(w, strings.Replace(loginHTML, "{{ERROR}}", msg, 1))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("email") != s.Email || r.PostForm.Get("pass") != s.Password {
		slog.Info("fakebot login rejected", "email", r.PostForm.Get("email"))
		http.Redirect(w, r, "/?error=1", http.StatusSeeOther)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = map[string]struct{}{}
	}
	s.sessions[token] = struct{}{}
	s.logins++
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (s *Server) loggedIn(r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[c.Value]
	return ok
}

// Logins counts successful form logins.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Logout forgets every session, as a server-side expiry would.
func (s *Server) Logout() {
	s.mu.Lock()
	s.sessions = map[string]struct{}{}
	s.mu.Unlock()
}

func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) servePage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, body)
	}
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(body))
}
