package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hupe1980/parlance"
	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/transcript"
)

// HealthHandler reports liveness.
type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// NotFoundHandler answers unknown routes with the error envelope.
type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := RequestIDFrom(r.Context())
	writeJSONError(w, http.StatusNotFound, &apiError{Type: "not_found", Message: "no route for " + r.URL.Path, RequestID: reqID})
}

// decodeObject reads a JSON body into its top-level fields. An empty body or a
// value that is not an object yields no fields; only malformed JSON fails.
func decodeObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			badRequest(w, r, "request body too large", "")
		} else {
			badRequest(w, r, "read request body: "+err.Error(), "")
		}
		return nil, false
	}

	fields := map[string]json.RawMessage{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fields, true
	}
	if !json.Valid(data) {
		badRequest(w, r, "invalid JSON body", "")
		return nil, false
	}
	if data[0] == '{' {
		_ = json.Unmarshal(data, &fields)
	}
	return fields, true
}

// stringField returns fields[key] when it is a JSON string and "" otherwise.
func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return ""
	}
	return s
}

// stringsField returns the string elements of an array field. A missing,
// null or non-array field yields nil.
func stringsField(fields map[string]json.RawMessage, key string) []string {
	var items []any
	if err := json.Unmarshal(fields[key], &items); err != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// preferencesFrom reads a PreferenceSet without rejecting anything: values of
// the wrong type become "" and resolve to registry defaults.
func preferencesFrom(fields map[string]json.RawMessage) core.PreferenceSet {
	return core.PreferenceSet{
		Language: stringField(fields, "language"),
		Persona:  stringField(fields, "personality"),
		Speed:    core.Speed(stringField(fields, "speed")),
		Level:    core.Level(stringField(fields, "level")),
		Style:    core.Style(stringField(fields, "style")),
	}
}

func objectField(fields map[string]json.RawMessage, key string) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if raw := bytes.TrimSpace(fields[key]); len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

type startSessionResponse struct {
	ClientSecret string             `json:"clientSecret"`
	ExpiresAt    int64              `json:"expiresAt,omitempty"`
	Model        string             `json:"model"`
	Instructions string             `json:"instructions"`
	Personality  core.PersonaMeta   `json:"personality"`
	Preferences  core.PreferenceSet `json:"preferences"`
}

// StartSessionHandler serves POST /api/language/start-session.
type StartSessionHandler struct {
	App          *parlance.Parlance
	MaxBodyBytes int64
	Logger       logging.Logger
}

func (h StartSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if !h.App.ProvisioningConfigured() {
		writeError(w, r, core.ConfigurationError("server.start_session", "realtime provisioning is not configured"))
		return
	}

	fields, ok := decodeObject(w, r, h.MaxBodyBytes)
	if !ok {
		return
	}
	prefs := preferencesFrom(fields)
	// A present memories array overrides the stored facts, even when empty.
	memories := stringsField(fields, "memories")

	cred, err := h.App.StartSession(r.Context(), prefs, memories)
	if err != nil {
		h.Logger.Error("start session failed", "error", err, "persona", prefs.Persona)
		writeError(w, r, err)
		return
	}

	resp := startSessionResponse{
		ClientSecret: cred.Secret,
		Model:        cred.Model,
		Instructions: cred.Instructions,
		Personality:  cred.Persona,
		Preferences:  prefs,
	}
	if !cred.ExpiresAt.IsZero() {
		resp.ExpiresAt = cred.ExpiresAt.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}

// SummaryHandler serves POST /api/language/summary.
type SummaryHandler struct {
	App          *parlance.Parlance
	MaxBodyBytes int64
	Logger       logging.Logger
}

func (h SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	fields, ok := decodeObject(w, r, h.MaxBodyBytes)
	if !ok {
		return
	}
	var conversation []transcript.Message
	if raw, found := fields["conversation"]; found {
		if err := json.Unmarshal(raw, &conversation); err != nil {
			badRequest(w, r, "conversation must be an array of messages", "conversation")
			return
		}
	}
	tr := transcript.FromMessages(conversation)
	if len(tr) == 0 {
		badRequest(w, r, "conversation is empty", "conversation")
		return
	}
	prefs := preferencesFrom(objectField(fields, "preferences"))

	res, err := h.App.Summarize(r.Context(), tr, prefs, stringsField(fields, "memories"))
	if err != nil {
		h.Logger.Error("summary failed", "error", err, "turns", len(tr))
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PersonasHandler serves GET /api/personas.
type PersonasHandler struct {
	App *parlance.Parlance
}

func (h PersonasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	reg := h.App.Registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": reg.Personas(),
		"default":  reg.ResolvePersona("").ID,
	})
}

// MemoriesHandler serves GET and DELETE /api/memories/{persona}. GET accepts
// an optional q filter.
type MemoriesHandler struct {
	App    *parlance.Parlance
	Logger logging.Logger
}

func (h MemoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	persona := strings.TrimSpace(r.PathValue("persona"))
	if !h.App.Registry().HasPersona(persona) {
		badRequest(w, r, "unknown persona "+strconv.Quote(persona), "persona")
		return
	}

	switch r.Method {
	case http.MethodGet:
		var (
			facts []core.MemoryFact
			err   error
		)
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			facts, err = h.App.SearchMemories(r.Context(), persona, q, 0)
		} else {
			facts, err = h.App.Memories(r.Context(), persona)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"persona": strings.ToLower(persona), "memories": facts})
	case http.MethodDelete:
		if err := h.App.ClearMemories(r.Context(), persona); err != nil {
			writeError(w, r, err)
			return
		}
		h.Logger.Info("memories cleared", "persona", persona)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, "GET, DELETE")
	}
}

// SessionsHandler serves GET /api/sessions.
type SessionsHandler struct {
	App    *parlance.Parlance
	Logger logging.Logger
}

func (h SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, r, "limit must be a non-negative integer", "limit")
			return
		}
		limit = n
	}
	recs, err := h.App.Records(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": recs})
}

// SessionHandler serves GET /api/sessions/{id}.
type SessionHandler struct {
	App    *parlance.Parlance
	Logger logging.Logger
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	rec, err := h.App.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
