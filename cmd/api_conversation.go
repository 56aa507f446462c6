package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/recollect-ai/recollect/pkg/conversation"
)

// ConversationAPI handles conversation memory HTTP endpoints. A single
// Memory backs the server; the mutex serializes access to it.
type ConversationAPI struct {
	mem *conversation.Memory
	mu  sync.Mutex
}

// RegisterRoutes adds conversation endpoints to the given mux.
func (a *ConversationAPI) RegisterRoutes(mux *http.ServeMux, mw func(string, http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/v1/conversation/add", mw("/v1/conversation/add", a.handleAdd))
	mux.HandleFunc("/v1/conversation/context", mw("/v1/conversation/context", a.handleContext))
	mux.HandleFunc("/v1/conversation/stats", mw("/v1/conversation/stats", a.handleStats))
	mux.HandleFunc("/v1/conversation/clear", mw("/v1/conversation/clear", a.handleClear))
	mux.HandleFunc("/v1/sessions", mw("/v1/sessions", a.handleSessions))
	mux.HandleFunc("/v1/sessions/save", mw("/v1/sessions/save", a.handleSave))
	mux.HandleFunc("/v1/sessions/load", mw("/v1/sessions/load", a.handleLoad))
	mux.HandleFunc("/v1/index/search", mw("/v1/index/search", a.handleSearch))
}

func (a *ConversationAPI) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		writeJSONError(w, "content is required", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	a.mu.Lock()
	a.mem.Add(req.Role, req.Content)
	stats := a.mem.Stats()
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (a *ConversationAPI) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	entries := a.mem.BuildContext(req.Input)
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Context []conversation.ContextEntry `json:"context"`
	}{Context: entries})
}

func (a *ConversationAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a.mu.Lock()
	stats := a.mem.Stats()
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (a *ConversationAPI) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a.mu.Lock()
	a.mem.Clear()
	stats := a.mem.Stats()
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (a *ConversationAPI) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a.mu.Lock()
	names, err := a.mem.ListSessions()
	a.mu.Unlock()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Sessions []string `json:"sessions"`
	}{Sessions: names})
}

func (a *ConversationAPI) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	path, err := a.mem.SaveSession(req.Name)
	a.mu.Unlock()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"path": path})
}

func (a *ConversationAPI) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	report, err := a.mem.LoadSession(req.Name)
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, conversation.ErrSessionNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (a *ConversationAPI) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		writeJSONError(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.TopK < 1 {
		req.TopK = 3
	}

	a.mu.Lock()
	results := a.mem.SearchIndex(req.Query, req.TopK)
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
