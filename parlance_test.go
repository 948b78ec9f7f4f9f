package parlance

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/parlance/config"
	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/memory"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/realtime"
	"github.com/hupe1980/parlance/session"
	"github.com/hupe1980/parlance/transcript"
)

type provisionFunc func(ctx context.Context, payload realtime.ConfigPayload) (*core.Credential, error)

func (f provisionFunc) Provision(ctx context.Context, payload realtime.ConfigPayload) (*core.Credential, error) {
	return f(ctx, payload)
}

const reportWithMemories = "## Summary\nGreat chat about Lyon.\n\n```json\n{\"memories\": [\"Learner lives in Lyon\"]}\n```"

var frPrefs = core.PreferenceSet{Language: "fr", Persona: "fizz", Speed: "fast", Level: "advanced", Style: "slang"}

func TestStartSession_UsesStoredMemories(t *testing.T) {
	var got realtime.ConfigPayload
	p := New(func(o *Options) {
		o.Provisioner = provisionFunc(func(_ context.Context, payload realtime.ConfigPayload) (*core.Credential, error) {
			got = payload
			return &core.Credential{Secret: "ek_test"}, nil
		})
	})

	_, err := p.MemoryStore().AppendMemories(context.Background(), "fizz", []string{"Learner plays guitar"})
	require.NoError(t, err)

	cred, err := p.StartSession(context.Background(), frPrefs, nil)
	require.NoError(t, err)

	assert.Equal(t, "ek_test", cred.Secret)
	assert.Equal(t, "fizz", cred.Persona.ID)
	assert.Equal(t, realtime.DefaultModel, cred.Model)
	assert.Contains(t, cred.Instructions, "- Learner plays guitar")
	assert.Equal(t, "fr", got.Audio.Input.Transcription.Language)
	assert.Equal(t, p.Compile(frPrefs, []string{"Learner plays guitar"}), got.Instructions)

	cred, err = p.StartSession(context.Background(), frPrefs, []string{})
	require.NoError(t, err)
	assert.NotContains(t, cred.Instructions, "Learner plays guitar")
}

func TestStartSession_NotConfigured(t *testing.T) {
	p := New()
	_, err := p.StartSession(context.Background(), frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
	assert.False(t, p.ProvisioningConfigured())

	keyless := New(func(o *Options) { o.Provisioner = realtime.NewProvisioner() })
	assert.False(t, keyless.ProvisioningConfigured())
	_, err = keyless.StartSession(context.Background(), frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindConfiguration))

	keyed := New(func(o *Options) {
		o.Provisioner = realtime.NewProvisioner(func(o *realtime.ProvisionerOptions) { o.APIKey = "sk-test" })
	})
	assert.True(t, keyed.ProvisioningConfigured())
}

func TestStartSession_ProvisionErrorPassesThrough(t *testing.T) {
	upstream := core.UpstreamError("realtime.provision", 503, errors.New("unavailable"))
	p := New(func(o *Options) {
		o.Provisioner = provisionFunc(func(context.Context, realtime.ConfigPayload) (*core.Credential, error) {
			return nil, upstream
		})
	})
	_, err := p.StartSession(context.Background(), frPrefs, nil)
	assert.ErrorIs(t, err, upstream)
}

func TestSummarize_PersistsMemoriesAndRecord(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.SetDefaultResponse(reportWithMemories)
	p := New(func(o *Options) { o.Model = m })
	ctx := context.Background()

	_, err := p.MemoryStore().AppendMemories(ctx, "fizz", []string{"Learner is a baker"})
	require.NoError(t, err)

	res, err := p.SummarizeMessages(ctx, []transcript.Message{
		{Role: "assistant", Content: "Salut ! Ça va ?"},
		{Role: "user", Content: "Ouais, j'habite à Lyon"},
	}, frPrefs, nil)
	require.NoError(t, err)

	assert.Equal(t, "## Summary\nGreat chat about Lyon.", res.ReportText)
	assert.Equal(t, []string{"Learner lives in Lyon"}, res.NewMemories)
	require.NotEmpty(t, res.RecordID)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Messages[0].Text, "- Learner is a baker")

	facts, err := p.Memories(ctx, "FIZZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner is a baker", "Learner lives in Lyon"}, core.FactTexts(facts))

	rec, err := p.Record(ctx, res.RecordID)
	require.NoError(t, err)
	assert.Len(t, rec.Transcript, 2)
	assert.Equal(t, frPrefs, rec.Preferences)

	recs, err := p.Records(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	require.NoError(t, p.ClearMemories(ctx, "fizz"))
	facts, _ = p.Memories(ctx, "fizz")
	assert.Empty(t, facts)
}

func TestSummarize_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New().Summarize(ctx, core.Transcript{{SequenceKey: 1, Role: core.RoleUser, Text: "hi", Sealed: true}}, frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindConfiguration))

	m := model.NewMockModel("mock", "test")
	p := New(func(o *Options) { o.Model = m })
	_, err = p.Summarize(ctx, nil, frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindInvalidInput))
	assert.Empty(t, m.Requests())

	m.SetError(errors.New("boom"))
	_, err = p.Summarize(ctx, core.Transcript{{SequenceKey: 1, Role: core.RoleUser, Text: "hi", Sealed: true}}, frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindUpstreamRequest))
}

func TestNewLifecycle_PersistsOnComplete(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.SetDefaultResponse(reportWithMemories)
	p := New(func(o *Options) {
		o.Model = m
		o.Provisioner = provisionFunc(func(context.Context, realtime.ConfigPayload) (*core.Credential, error) {
			return &core.Credential{Secret: "ek"}, nil
		})
	})
	ctx := context.Background()

	l := p.NewLifecycle()
	_, err := l.Start(ctx, frPrefs, nil)
	require.NoError(t, err)
	require.NoError(t, l.Connected())
	l.HandleEvent(transcript.Final(1, core.RoleAssistant, "Salut !"))
	l.HandleEvent(transcript.Final(2, core.RoleUser, "J'habite à Lyon"))

	res, err := l.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, res.State)

	recs, err := p.Records(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.SessionID, recs[0].ID)

	facts, _ := p.Memories(ctx, "fizz")
	assert.Equal(t, []string{"Learner lives in Lyon"}, core.FactTexts(facts))
}

func TestNewLifecycle_Unconfigured(t *testing.T) {
	l := New().NewLifecycle()
	_, err := l.Start(context.Background(), frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
	assert.Equal(t, session.StateFailed, l.State())
}

func TestNewFromConfig_SQLite(t *testing.T) {
	cfg := &config.Config{
		Summary: config.SummaryConfig{Provider: config.ProviderAnthropic, APIKey: "sk-ant", Temperature: 0.7, MaxTokens: 2000},
		Store:   config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "p.db")},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}

	p, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.StartSession(context.Background(), frPrefs, nil)
	assert.True(t, core.IsKind(err, core.KindConfiguration))

	_, err = p.MemoryStore().AppendMemories(context.Background(), "fizz", []string{"persisted"})
	require.NoError(t, err)
	assert.Same(t, p.MemoryStore(), p.RecordStore())
}

func TestNewFromConfig_Invalid(t *testing.T) {
	_, err := NewFromConfig(&config.Config{Summary: config.SummaryConfig{Provider: "nope"}}, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid summary provider"))
}

type plainMemoryStore struct{ core.MemoryStore }

func TestSearchMemories(t *testing.T) {
	ctx := context.Background()

	native := New()
	fallback := New(func(o *Options) { o.MemoryStore = plainMemoryStore{memory.NewInMemoryStore()} })

	for name, p := range map[string]*Parlance{"native": native, "fallback": fallback} {
		t.Run(name, func(t *testing.T) {
			_, err := p.MemoryStore().AppendMemories(ctx, "marcus", []string{"Learner cooks pasta", "Learner loves PASTA carbonara", "Learner runs"})
			require.NoError(t, err)

			got, err := p.SearchMemories(ctx, "Marcus", "pasta", 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"Learner cooks pasta", "Learner loves PASTA carbonara"}, core.FactTexts(got))

			got, err = p.SearchMemories(ctx, "marcus", "pasta", 1)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}
