package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance"
	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/realtime"
)

type provisionFunc func(ctx context.Context, payload realtime.ConfigPayload) (*core.Credential, error)

func (f provisionFunc) Provision(ctx context.Context, payload realtime.ConfigPayload) (*core.Credential, error) {
	return f(ctx, payload)
}

func okProvisioner() provisionFunc {
	return func(_ context.Context, p realtime.ConfigPayload) (*core.Credential, error) {
		return &core.Credential{Secret: "ek_abc", ExpiresAt: time.Unix(1700000000, 0), Model: p.Model, Instructions: p.Instructions}, nil
	}
}

func newTestServer(t *testing.T, optFns ...func(o *parlance.Options)) (*httptest.Server, *parlance.Parlance) {
	t.Helper()
	app := parlance.New(optFns...)
	s := New(app, func(o *Options) { o.CORSAllowedOrigins = []string{"http://localhost:3000"} })
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, app
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func errorType(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return e["type"].(string)
}

func TestStartSession(t *testing.T) {
	ts, _ := newTestServer(t, func(o *parlance.Options) { o.Provisioner = okProvisioner() })

	resp, body := do(t, http.MethodPost, ts.URL+"/api/language/start-session",
		`{"language":"fr","personality":"fizz","speed":"fast","level":"advanced","style":"slang","memories":["Learner likes jazz"]}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "ek_abc", body["clientSecret"])
	assert.Equal(t, float64(1700000000), body["expiresAt"])
	assert.Equal(t, realtime.DefaultModel, body["model"])
	assert.Contains(t, body["instructions"], "- Learner likes jazz")
	assert.Equal(t, map[string]any{"id": "fizz", "name": "Fizz"}, body["personality"])
}

func TestStartSession_Errors(t *testing.T) {
	t.Run("method not allowed", func(t *testing.T) {
		ts, _ := newTestServer(t, func(o *parlance.Options) { o.Provisioner = okProvisioner() })
		resp, body := do(t, http.MethodGet, ts.URL+"/api/language/start-session", "")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "POST", resp.Header.Get("Allow"))
		assert.Equal(t, "method_not_allowed", errorType(t, body))
	})

	t.Run("missing configuration", func(t *testing.T) {
		ts, _ := newTestServer(t)
		resp, body := do(t, http.MethodPost, ts.URL+"/api/language/start-session", `{"language":"es"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, string(core.KindConfiguration), errorType(t, body))
	})

	t.Run("invalid json", func(t *testing.T) {
		ts, _ := newTestServer(t, func(o *parlance.Options) { o.Provisioner = okProvisioner() })
		resp, body := do(t, http.MethodPost, ts.URL+"/api/language/start-session", `{"language":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, string(core.KindInvalidInput), errorType(t, body))
	})

	t.Run("upstream failure", func(t *testing.T) {
		ts, _ := newTestServer(t, func(o *parlance.Options) {
			o.Provisioner = provisionFunc(func(context.Context, realtime.ConfigPayload) (*core.Credential, error) {
				return nil, core.UpstreamError("realtime.provision", 429, errors.New("rate limited"))
			})
		})
		resp, body := do(t, http.MethodPost, ts.URL+"/api/language/start-session", `{}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, string(core.KindUpstreamRequest), errorType(t, body))
		assert.Equal(t, float64(429), body["error"].(map[string]any)["upstream_status"])
	})
}

func TestStartSession_LenientPreferences(t *testing.T) {
	var got realtime.ConfigPayload
	ts, _ := newTestServer(t, func(o *parlance.Options) {
		o.Provisioner = provisionFunc(func(ctx context.Context, p realtime.ConfigPayload) (*core.Credential, error) {
			got = p
			return okProvisioner()(ctx, p)
		})
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "wrong typed field", body: `{"speed": 2}`},
		{name: "null and array values", body: `{"personality": null, "level": ["x"], "memories": "nope"}`},
		{name: "not an object", body: `[1, 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/api/language/start-session", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
			assert.Equal(t, map[string]any{"id": "fizz", "name": "Fizz"}, body["personality"])
			assert.Contains(t, got.Instructions, "the target language")
		})
	}
}

func TestStartSession_NotConfiguredBeforeBody(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, body := range []string{"", `{"speed": 2}`} {
		resp, out := do(t, http.MethodPost, ts.URL+"/api/language/start-session", body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, string(core.KindConfiguration), errorType(t, out))
	}
}

func TestSummary(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.SetDefaultResponse("## Summary\nNice work.\n\n```json\n{\"memories\": [\"Learner studies law\"]}\n```")
	ts, app := newTestServer(t, func(o *parlance.Options) { o.Model = m })

	resp, body := do(t, http.MethodPost, ts.URL+"/api/language/summary", `{
		"conversation": [
			{"role": "assistant", "content": "Hallo! Wie geht's?"},
			{"role": "user", "text": "Gut, ich studiere Jura."}
		],
		"preferences": {"language": "de", "personality": "marcus"}
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "## Summary\nNice work.", body["summary"])
	assert.Equal(t, []any{"Learner studies law"}, body["newMemories"])
	assert.NotEmpty(t, body["recordId"])

	facts, err := app.Memories(context.Background(), "marcus")
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner studies law"}, core.FactTexts(facts))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/sessions/"+body["recordId"].(string), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "## Summary\nNice work.", body["summary"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/sessions?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["sessions"], 1)
}

func TestSummary_Errors(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	ts, _ := newTestServer(t, func(o *parlance.Options) { o.Model = m })

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/language/summary", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/language/summary", `{"conversation": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(core.KindInvalidInput), errorType(t, body))
	assert.Empty(t, m.Requests())

	m.SetError(errors.New("provider down"))
	resp, body = do(t, http.MethodPost, ts.URL+"/api/language/summary", `{"conversation": [{"role":"user","content":"hola"}]}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, string(core.KindUpstreamRequest), errorType(t, body))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/sessions?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", errorType(t, body))
}

func TestPersonasAndMemories(t *testing.T) {
	ts, app := newTestServer(t)
	_, err := app.MemoryStore().AppendMemories(context.Background(), "sofia", []string{"Learner paints"})
	require.NoError(t, err)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/personas", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fizz", body["default"])
	assert.Len(t, body["personas"], len(app.Registry().Personas()))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/memories/sofia", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["memories"], 1)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/memories/sofia?q=PAINT", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["memories"], 1)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/memories/sofia?q=guitar", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["memories"], 0)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/memories/sofia", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	facts, _ := app.Memories(context.Background(), "sofia")
	assert.Empty(t, facts)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/memories/ghost", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/memories/sofia", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMiddleware(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("preflight allowed", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/language/start-session", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight denied", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/language/start-session", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("request id propagated", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		req.Header.Set("X-Request-ID", "req_fixed")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "req_fixed", resp.Header.Get("X-Request-ID"))
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, ts.URL+"/nope", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", errorType(t, body))
	})
}

func TestRecover(t *testing.T) {
	h := RequestID(Recover(noopLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal_error")
}

func noopLogger() logging.Logger { return logging.NoOpLogger{} }
