package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/core"
)

func newTestProvisioner(t *testing.T, handler http.HandlerFunc) (*Provisioner, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p := NewProvisioner(func(o *ProvisionerOptions) {
		o.APIKey = "sk-test"
		o.BaseURL = srv.URL
	})
	return p, &calls
}

func TestProvision_Success(t *testing.T) {
	var body map[string]any
	p, calls := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/realtime/client_secrets", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret": {"value": "ek_123", "expires_at": 1700000000}}`))
	})

	payload := BuildConfig("instr", core.Persona{Voice: "sage"}, "es")
	cred, err := p.Provision(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "ek_123", cred.Secret)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), cred.ExpiresAt)
	assert.Equal(t, DefaultModel, cred.Model)
	assert.Equal(t, "instr", cred.Instructions)

	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "realtime", session["type"])
	assert.Equal(t, "instr", session["instructions"])
}

func TestProvision_TopLevelValue(t *testing.T) {
	p, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": "ek_top"}`))
	})

	cred, err := p.Provision(context.Background(), BuildConfig("x", core.Persona{}, "de"))
	require.NoError(t, err)
	assert.Equal(t, "ek_top", cred.Secret)
	assert.True(t, cred.ExpiresAt.IsZero())
}

func TestProvision_MissingSecret(t *testing.T) {
	p, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_secret": {}}`))
	})

	_, err := p.Provision(context.Background(), BuildConfig("x", core.Persona{}, "de"))
	assert.True(t, core.IsKind(err, core.KindMalformedUpstream), err)
}

func TestProvision_UpstreamFailureNoRetry(t *testing.T) {
	p, calls := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom"}}`))
	})

	_, err := p.Provision(context.Background(), BuildConfig("x", core.Persona{}, "de"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUpstreamRequest))
	assert.Equal(t, int32(1), calls.Load())

	var ce *core.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}

func TestProvision_MissingKey(t *testing.T) {
	p := NewProvisioner()
	assert.False(t, p.Configured())

	_, err := p.Provision(context.Background(), BuildConfig("x", core.Persona{}, "de"))
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}
