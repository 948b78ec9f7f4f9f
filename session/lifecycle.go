package session

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/prompt"
	"github.com/hupe1980/parlance/realtime"
	"github.com/hupe1980/parlance/registry"
	"github.com/hupe1980/parlance/summary"
	"github.com/hupe1980/parlance/transcript"
)

// EmptyTranscriptReport is the report of a session that ended without any turns.
const EmptyTranscriptReport = "Transcript unavailable, so feedback could not be generated."

// Provisioner obtains a realtime credential for a configuration payload.
type Provisioner interface {
	Provision(ctx context.Context, payload realtime.ConfigPayload) (*core.Credential, error)
}

// Summarizer produces the feedback report for a finished transcript.
type Summarizer interface {
	Extract(ctx context.Context, tr core.Transcript, prefs core.PreferenceSet, existing []string) (*summary.Result, error)
}

// Options configures a Lifecycle.
type Options struct {
	Logger logging.Logger
	// ConfigOptions are passed to realtime.BuildConfig.
	ConfigOptions []func(o *realtime.ConfigOptions)
	// OnComplete receives the record of every session that produced a report.
	// It runs on the goroutine that called End, after the lock is released.
	OnComplete func(rec core.SessionRecord)
	Now        func() time.Time
}

// Result is the outcome of a finished conversation.
type Result struct {
	SessionID      string             `json:"sessionId"`
	State          State              `json:"state"`
	Transcript     core.Transcript    `json:"transcript"`
	ReportText     string             `json:"summary"`
	NewMemories    []string           `json:"newMemories"`
	MemoriesParsed bool               `json:"-"`
	Preferences    core.PreferenceSet `json:"preferences"`
	Err            error              `json:"-"`
}

// Lifecycle is the per-conversation state machine. Safe for concurrent use.
type Lifecycle struct {
	reg         *registry.Registry
	provisioner Provisioner
	summarizer  Summarizer
	opts        Options

	mu       sync.Mutex
	state    State
	epoch    uint64
	id       string
	prefs    core.PreferenceSet
	memories []string
	cred     *core.Credential
	agg      *transcript.Aggregator
	result   *Result
}

// New creates an idle Lifecycle.
func New(reg *registry.Registry, provisioner Provisioner, summarizer Summarizer, optFns ...func(o *Options)) *Lifecycle {
	opts := Options{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if reg == nil {
		reg = registry.Default()
	}
	if provisioner == nil {
		provisioner = unconfigured{}
	}
	if summarizer == nil {
		summarizer = unconfigured{}
	}
	return &Lifecycle{reg: reg, provisioner: provisioner, summarizer: summarizer, opts: opts}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ID returns the id of the current or last conversation, or "" when idle.
func (l *Lifecycle) ID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

// Credential returns the credential of the current conversation, if any.
func (l *Lifecycle) Credential() *core.Credential {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cred == nil {
		return nil
	}
	cp := *l.cred
	return &cp
}

// Result returns the outcome of the last finished conversation, if any.
func (l *Lifecycle) Result() *Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.result == nil {
		return nil
	}
	cp := *l.result
	cp.Transcript = l.result.Transcript.Clone()
	return &cp
}

// Transcript returns the turns received so far without sealing them.
func (l *Lifecycle) Transcript() core.Transcript {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.agg == nil {
		return nil
	}
	return l.agg.Snapshot()
}

// Start compiles the instructions for prefs and facts, builds the session
// configuration and requests a credential. The lifecycle stays Requesting
// until Connected is called.
func (l *Lifecycle) Start(ctx context.Context, prefs core.PreferenceSet, facts []core.MemoryFact) (*core.Credential, error) {
	l.mu.Lock()
	if l.state.Active() {
		state := l.state
		l.mu.Unlock()
		return nil, core.InvalidStateError("session.start", "a session is already "+state.String())
	}

	persona := l.reg.ResolvePersona(prefs.Persona)
	instructions := prompt.Compile(l.reg, prefs, facts)
	payload := realtime.BuildConfig(instructions, persona, prefs.Language, l.opts.ConfigOptions...)

	l.epoch++
	epoch := l.epoch
	l.id = core.NewID()
	l.prefs = prefs
	l.memories = core.FactTexts(facts)
	l.cred = nil
	l.agg = nil
	l.result = nil
	l.state = StateRequesting
	log := l.logger()
	l.mu.Unlock()

	log.Info("requesting realtime credential", "persona", persona.ID, "language", prefs.Language)

	cred, err := l.provisioner.Provision(ctx, payload)
	if err == nil && cred == nil {
		err = core.MalformedUpstreamError("session.start", "provisioner returned no credential")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		log.Debug("discarding stale credential result")
		return nil, core.InvalidStateError("session.start", "session was aborted or reset")
	}
	if err != nil {
		l.state = StateFailed
		l.result = &Result{SessionID: l.id, State: StateFailed, Transcript: core.Transcript{}, Preferences: prefs, Err: err}
		log.Error("credential request failed", "error", err)
		return nil, err
	}

	cred.Persona = persona.Meta()
	if cred.Instructions == "" {
		cred.Instructions = instructions
	}
	if cred.Model == "" {
		cred.Model = payload.Model
	}
	l.cred = cred
	cp := *cred
	return &cp, nil
}

// Connected reports that the transport collaborator established the live
// session. Transcript events are accepted from now on.
func (l *Lifecycle) Connected() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRequesting || l.cred == nil {
		return core.InvalidStateError("session.connected", "no credential pending, state is "+l.state.String())
	}
	l.state = StateInProgress
	l.agg = transcript.New()
	l.logger().Info("session in progress")
	return nil
}

// HandleEvent feeds a transcript event. It reports whether the event was
// applied; events outside InProgress are ignored.
func (l *Lifecycle) HandleEvent(ev transcript.Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateInProgress {
		return false
	}
	return l.agg.OnEvent(ev)
}

// End finalizes the transcript and requests the report. On a summary request
// failure the returned Result still carries the transcript.
func (l *Lifecycle) End(ctx context.Context) (*Result, error) {
	l.mu.Lock()
	if l.state != StateInProgress {
		state := l.state
		l.mu.Unlock()
		return nil, core.InvalidStateError("session.end", "no session in progress, state is "+state.String())
	}
	l.state = StateCompleting
	tr, _ := l.agg.Finalize()
	epoch := l.epoch
	id, prefs, existing := l.id, l.prefs, l.memories
	log := l.logger()
	l.mu.Unlock()

	if len(tr) == 0 {
		res := &Result{
			SessionID:   id,
			State:       StateCompleted,
			Transcript:  core.Transcript{},
			ReportText:  EmptyTranscriptReport,
			NewMemories: []string{},
			Preferences: prefs,
		}
		return l.finish(epoch, res, nil, log)
	}

	log.Info("requesting summary", "turns", len(tr))
	sres, err := l.summarizer.Extract(ctx, tr, prefs, existing)
	if err == nil && sres == nil {
		err = core.MalformedUpstreamError("session.end", "summarizer returned no result")
	}
	if err != nil {
		res := &Result{SessionID: id, State: StateFailed, Transcript: tr, Preferences: prefs, Err: err}
		return l.finish(epoch, res, err, log)
	}

	res := &Result{
		SessionID:      id,
		State:          StateCompleted,
		Transcript:     tr,
		ReportText:     sres.ReportText,
		NewMemories:    sres.NewMemories,
		MemoriesParsed: sres.MemoriesParsed,
		Preferences:    prefs,
	}
	out, ferr := l.finish(epoch, res, nil, log)
	if ferr == nil && l.opts.OnComplete != nil {
		l.opts.OnComplete(core.SessionRecord{
			ID:          id,
			Transcript:  tr.Clone(),
			ReportText:  res.ReportText,
			NewMemories: append([]string{}, res.NewMemories...),
			Preferences: prefs,
			CreatedAt:   l.opts.Now().UTC(),
		})
	}
	return out, ferr
}

func (l *Lifecycle) finish(epoch uint64, res *Result, err error, log logging.Logger) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		log.Debug("discarding stale summary result")
		return nil, core.InvalidStateError("session.end", "session was reset")
	}
	l.state = res.State
	l.result = res
	l.agg = nil
	l.cred = nil
	if err != nil {
		log.Error("summary failed", "error", err)
		cp := *res
		return &cp, err
	}
	log.Info("session completed", "new_memories", len(res.NewMemories))
	cp := *res
	return &cp, nil
}

// Abort discards the conversation without a report. A credential request in
// flight is left to complete and its result ignored.
func (l *Lifecycle) Abort() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateInProgress && l.state != StateRequesting {
		return core.InvalidStateError("session.abort", "nothing to abort, state is "+l.state.String())
	}
	l.epoch++
	l.state = StateAborted
	l.agg = nil
	l.cred = nil
	l.result = &Result{SessionID: l.id, State: StateAborted, Preferences: l.prefs}
	l.logger().Info("session aborted")
	return nil
}

// Reset returns to Idle from any state and forgets the last conversation.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.state = StateIdle
	l.id = ""
	l.prefs = core.PreferenceSet{}
	l.memories = nil
	l.agg = nil
	l.cred = nil
	l.result = nil
}

// logger must be called with l.mu held.
func (l *Lifecycle) logger() logging.Logger {
	if sl, ok := l.opts.Logger.(*logging.StructuredLogger); ok {
		return sl.WithComponent("session").WithSession(l.id)
	}
	return l.opts.Logger
}

// unconfigured stands in for a missing collaborator.
type unconfigured struct{}

func (unconfigured) Provision(context.Context, realtime.ConfigPayload) (*core.Credential, error) {
	return nil, core.ConfigurationError("session.start", "realtime provisioning is not configured")
}

func (unconfigured) Extract(context.Context, core.Transcript, core.PreferenceSet, []string) (*summary.Result, error) {
	return nil, core.ConfigurationError("session.end", "summary generation is not configured")
}
