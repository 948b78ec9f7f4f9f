// Package parlance provides a high-level façade over the spoken-language
// practice core. Most applications interact with this package by:
//  1. Creating a Parlance via New() or NewFromConfig()
//  2. Calling StartSession to obtain a realtime credential for a learner's preferences
//  3. Calling Summarize (or driving a Lifecycle) once the conversation ends
//
// Memories and session records default to in-memory stores; production
// deployments typically supply the SQLite store from package store.
package parlance

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/history"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/memory"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/prompt"
	"github.com/hupe1980/parlance/realtime"
	"github.com/hupe1980/parlance/registry"
	"github.com/hupe1980/parlance/session"
	"github.com/hupe1980/parlance/summary"
	"github.com/hupe1980/parlance/transcript"
)

// Options configures the Parlance instance.
type Options struct {
	// Registry defaults to registry.Default().
	Registry *registry.Registry

	// Provisioner issues realtime credentials. When nil StartSession reports
	// a configuration error.
	Provisioner session.Provisioner

	// Model generates feedback reports. When nil Summarize reports a
	// configuration error.
	Model model.Model
	// StatusCode extracts the upstream HTTP status from a Model error.
	StatusCode func(error) int
	// StreamSummary requests streaming generation for reports.
	StreamSummary bool

	// ConfigOptions are passed to realtime.BuildConfig.
	ConfigOptions []func(o *realtime.ConfigOptions)

	// Stores (defaults to in-memory implementations if not provided)
	MemoryStore core.MemoryStore
	RecordStore core.RecordStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Parlance is the high-level façade aggregating registry, provisioning,
// summarization and persistence.
type Parlance struct {
	opts      Options
	extractor *summary.Extractor
}

// New creates a new Parlance instance with optional overrides.
func New(optFns ...func(o *Options)) *Parlance {
	opts := Options{
		Registry:    registry.Default(),
		MemoryStore: memory.NewInMemoryStore(),
		RecordStore: history.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Registry == nil {
		opts.Registry = registry.Default()
	}

	ex := summary.NewExtractor(opts.Model, opts.Registry, func(o *summary.Options) {
		o.Logger = opts.Logger
		o.Stream = opts.StreamSummary
		o.StatusCode = opts.StatusCode
	})

	return &Parlance{opts: opts, extractor: ex}
}

// Registry returns the lookup tables in use.
func (p *Parlance) Registry() *registry.Registry { return p.opts.Registry }

// MemoryStore returns the configured memory store.
func (p *Parlance) MemoryStore() core.MemoryStore { return p.opts.MemoryStore }

// RecordStore returns the configured record store.
func (p *Parlance) RecordStore() core.RecordStore { return p.opts.RecordStore }

// Compile returns the instructions StartSession would send for prefs.
func (p *Parlance) Compile(prefs core.PreferenceSet, memories []string) string {
	return prompt.CompileTexts(p.opts.Registry, prefs, memories)
}

// StartSession compiles the instructions for prefs and requests a realtime
// credential. A nil memories slice loads the persona's stored facts; an
// empty non-nil slice disables memories for this session.
func (p *Parlance) StartSession(ctx context.Context, prefs core.PreferenceSet, memories []string) (*core.Credential, error) {
	if !p.ProvisioningConfigured() {
		return nil, core.ConfigurationError("parlance.start_session", "realtime provisioning is not configured")
	}

	persona := p.opts.Registry.ResolvePersona(prefs.Persona)
	if memories == nil {
		memories = p.storedMemories(ctx, persona.ID)
	}

	instructions := prompt.CompileTexts(p.opts.Registry, prefs, memories)
	payload := realtime.BuildConfig(instructions, persona, prefs.Language, p.opts.ConfigOptions...)

	cred, err := p.opts.Provisioner.Provision(ctx, payload)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, core.MalformedUpstreamError("parlance.start_session", "provisioner returned no credential")
	}
	cred.Persona = persona.Meta()
	if cred.Instructions == "" {
		cred.Instructions = instructions
	}
	if cred.Model == "" {
		cred.Model = payload.Model
	}
	return cred, nil
}

// ProvisioningConfigured reports whether StartSession can request credentials.
func (p *Parlance) ProvisioningConfigured() bool {
	if p.opts.Provisioner == nil {
		return false
	}
	if c, ok := p.opts.Provisioner.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// SummaryResult is the outcome of Summarize.
type SummaryResult struct {
	ReportText  string   `json:"summary"`
	NewMemories []string `json:"newMemories"`
	// RecordID is set when the session record was persisted.
	RecordID string `json:"recordId,omitempty"`
}

// Summarize produces the feedback report for a finished conversation and
// persists the new memories and the session record. A nil existing slice
// loads the persona's stored facts. Persistence failures are logged and do
// not fail the call.
func (p *Parlance) Summarize(ctx context.Context, tr core.Transcript, prefs core.PreferenceSet, existing []string) (*SummaryResult, error) {
	persona := p.opts.Registry.ResolvePersona(prefs.Persona)
	if existing == nil && len(tr) > 0 {
		existing = p.storedMemories(ctx, persona.ID)
	}

	res, err := p.extractor.Extract(ctx, tr, prefs, existing)
	if err != nil {
		return nil, err
	}

	out := &SummaryResult{ReportText: res.ReportText, NewMemories: res.NewMemories}
	rec := core.SessionRecord{
		ID:          core.NewID(),
		Transcript:  tr.Clone(),
		ReportText:  res.ReportText,
		NewMemories: append([]string{}, res.NewMemories...),
		Preferences: prefs,
		CreatedAt:   time.Now().UTC(),
	}
	if p.persist(ctx, rec) {
		out.RecordID = rec.ID
	}
	return out, nil
}

// SummarizeMessages is Summarize for clients that submit role-labeled
// messages instead of a sealed transcript.
func (p *Parlance) SummarizeMessages(ctx context.Context, msgs []transcript.Message, prefs core.PreferenceSet, existing []string) (*SummaryResult, error) {
	return p.Summarize(ctx, transcript.FromMessages(msgs), prefs, existing)
}

// NewLifecycle returns a per-conversation state machine wired to this
// instance's provisioner, summarizer and stores.
func (p *Parlance) NewLifecycle(optFns ...func(o *session.Options)) *session.Lifecycle {
	base := func(o *session.Options) {
		o.Logger = p.opts.Logger
		o.ConfigOptions = p.opts.ConfigOptions
		o.OnComplete = func(rec core.SessionRecord) {
			p.persist(context.Background(), rec)
		}
	}
	return session.New(p.opts.Registry, p.opts.Provisioner, p.extractor, append([]func(o *session.Options){base}, optFns...)...)
}

// Memories returns the stored facts of a persona.
func (p *Parlance) Memories(ctx context.Context, personaID string) ([]core.MemoryFact, error) {
	return p.opts.MemoryStore.Memories(ctx, p.opts.Registry.ResolvePersona(personaID).ID)
}

// SearchMemories returns the persona's facts containing query, ignoring case.
// Stores without native search are filtered in memory.
func (p *Parlance) SearchMemories(ctx context.Context, personaID, query string, limit int) ([]core.MemoryFact, error) {
	personaID = p.opts.Registry.ResolvePersona(personaID).ID
	if s, ok := p.opts.MemoryStore.(core.MemorySearcher); ok {
		return s.Search(ctx, personaID, query, limit)
	}

	facts, err := p.opts.MemoryStore.Memories(ctx, personaID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := make([]core.MemoryFact, 0)
	for _, f := range facts {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(f.Text), q) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ClearMemories removes every stored fact of a persona.
func (p *Parlance) ClearMemories(ctx context.Context, personaID string) error {
	return p.opts.MemoryStore.ClearMemories(ctx, p.opts.Registry.ResolvePersona(personaID).ID)
}

// Records lists persisted sessions newest first.
func (p *Parlance) Records(ctx context.Context, limit int) ([]core.SessionRecord, error) {
	return p.opts.RecordStore.ListRecords(ctx, limit)
}

// Record returns one persisted session.
func (p *Parlance) Record(ctx context.Context, id string) (*core.SessionRecord, error) {
	return p.opts.RecordStore.GetRecord(ctx, id)
}

// Close releases stores that hold resources.
func (p *Parlance) Close() error {
	var closed []any
	var firstErr error
	for _, s := range []any{p.opts.MemoryStore, p.opts.RecordStore} {
		c, ok := s.(io.Closer)
		if !ok || containsSame(closed, s) {
			continue
		}
		closed = append(closed, s)
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func containsSame(list []any, v any) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (p *Parlance) storedMemories(ctx context.Context, personaID string) []string {
	if p.opts.MemoryStore == nil {
		return nil
	}
	facts, err := p.opts.MemoryStore.Memories(ctx, personaID)
	if err != nil {
		p.opts.Logger.Warn("failed to load memories", "persona", personaID, "error", err)
		return nil
	}
	return core.FactTexts(facts)
}

// persist appends new memories and saves the record. It reports whether the
// record was saved.
func (p *Parlance) persist(ctx context.Context, rec core.SessionRecord) bool {
	personaID := p.opts.Registry.ResolvePersona(rec.Preferences.Persona).ID

	if p.opts.MemoryStore != nil && len(rec.NewMemories) > 0 {
		if _, err := p.opts.MemoryStore.AppendMemories(ctx, personaID, rec.NewMemories); err != nil {
			p.opts.Logger.Warn("failed to store memories", "persona", personaID, "error", err)
		}
	}

	if p.opts.RecordStore == nil {
		return false
	}
	if err := p.opts.RecordStore.SaveRecord(ctx, &rec); err != nil {
		p.opts.Logger.Warn("failed to save session record", "session_id", rec.ID, "error", err)
		return false
	}
	return true
}

