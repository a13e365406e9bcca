package relay

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// Server exposes the store over a loopback HTTP surface so the
// interception process can publish captures into the request-handling
// process:
//
//	POST /set_note           {"note_id": ..., "url": ..., "headers": {...}}
//	POST /set_comment_list   same body
//	GET  /get_note/{id}          -> stored record, or {} when none pending
//	GET  /get_comment_list/{id}  -> same; retrieval is destructive
//
// A miss is an explicit empty JSON object rather than an error status so
// pollers can distinguish "keep waiting" from transport failure.
type Server struct {
	store *Store
}

// NewServer creates a relay server over the given store.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Handler returns the HTTP handler for the relay surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /set_note", s.handleSet(KindNote))
	mux.HandleFunc("POST /set_comment_list", s.handleSet(KindCommentList))
	mux.HandleFunc("GET /get_note/{id}", s.handleGet(KindNote))
	mux.HandleFunc("GET /get_comment_list/{id}", s.handleGet(KindCommentList))
	return mux
}

// ListenAndServe runs the relay on the given loopback port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("relay: listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type setRequest struct {
	NoteID  string            `json:"note_id"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

func (s *Server) handleSet(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body setRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if body.NoteID == "" || body.URL == "" {
			http.Error(w, "note_id and url are required", http.StatusBadRequest)
			return
		}
		log.Printf("relay: set %s %s %s", kind, body.NoteID, body.URL)
		s.store.Publish(body.NoteID, kind, body.URL, body.Headers)
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleGet(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID := strings.TrimSpace(r.PathValue("id"))
		rec := s.store.Consume(noteID, kind)
		if rec.Empty() {
			writeJSON(w, struct{}{})
			return
		}
		writeJSON(w, rec)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("relay: write response: %v", err)
	}
}
