// Package httpapi is the small debug/collection HTTP surface:
// GET /getCollection[/:id], GET /getUsers/:sid, and a secret-gated debug
// endpoint. It sits beside the websocket gateway, not behind it — plain
// net/http, since three routes don't justify a router dependency.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TheBarnacle/MTGADraft/registry"
)

// Server wires the Registry into a handful of read-only debug routes.
type Server struct {
	registry    *registry.Registry
	debugSecret string
	log         zerolog.Logger
}

// New builds a Server. debugSecret gates /debug/*; an empty secret
// disables the debug routes entirely rather than leaving them open.
func New(r *registry.Registry, debugSecret string, log zerolog.Logger) *Server {
	return &Server{registry: r, debugSecret: debugSecret, log: log}
}

// Handler returns the mux to mount on the process's HTTP listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/getCollection", s.handleGetCollection)
	mux.HandleFunc("/getCollection/", s.handleGetCollection)
	mux.HandleFunc("/getUsers/", s.handleGetUsers)
	mux.HandleFunc("/debug/sessions", s.handleDebugSessions)
	return mux
}

// handleGetCollection reports the requesting (or named) participant's
// known collection. Collections live on the Session, so the caller must
// also tell us which session to look in via ?sid=.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/getCollection/")
	if userID == "/getCollection" || userID == "" {
		userID = r.URL.Query().Get("id")
	}
	sessionID := r.URL.Query().Get("sid")
	if userID == "" || sessionID == "" {
		http.Error(w, "missing id or sid", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Peek(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	_, _, users := sess.Snapshot()
	p, ok := users[userID]
	if !ok {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	writeJSON(w, p.Collection)
}

// handleGetUsers reports the live membership of a session, the one
// piece of Session state the spec explicitly calls out as readable
// concurrently with the mailbox goroutine via Snapshot.
func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/getUsers/")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Peek(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	owner, order, users := sess.Snapshot()

	type userView struct {
		UserID   string `json:"userID"`
		UserName string `json:"userName"`
		IsBot    bool   `json:"isBot,omitempty"`
	}
	out := struct {
		Owner string     `json:"owner"`
		Users []userView `json:"users"`
	}{Owner: owner}
	for _, uid := range order {
		if p, ok := users[uid]; ok {
			out.Users = append(out.Users, userView{UserID: p.UserID, UserName: p.UserName, IsBot: p.IsBot})
		}
	}
	writeJSON(w, out)
}

// handleDebugSessions is guarded by a static bearer secret rather than
// any real auth scheme, matching spec's explicit non-goal of
// "authentication/authorization beyond opaque participant id".
func (s *Server) handleDebugSessions(w http.ResponseWriter, r *http.Request) {
	if s.debugSecret == "" || r.Header.Get("Authorization") != "Bearer "+s.debugSecret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
