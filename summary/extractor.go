package summary

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/registry"
)

const extractOp = "summary.extract"

// Options configures an Extractor.
type Options struct {
	Logger logging.Logger
	// Stream requests streaming generation; the result is the same.
	Stream bool
	// StatusCode extracts an upstream HTTP status from a generation error.
	StatusCode func(error) int
}

// Result is the outcome of one extraction.
type Result struct {
	ReportText  string   `json:"summary"`
	NewMemories []string `json:"newMemories"`
	// MemoriesParsed is false when the structured tail was missing or malformed.
	MemoriesParsed bool              `json:"-"`
	Model          string            `json:"-"`
	Usage          *model.TokenUsage `json:"-"`
}

// Extractor produces reports with a text-generation model. Safe for
// concurrent use when the model is.
type Extractor struct {
	model model.Model
	reg   *registry.Registry
	opts  Options
}

// NewExtractor creates an Extractor. m may be nil, in which case Extract
// reports a configuration error.
func NewExtractor(m model.Model, reg *registry.Registry, optFns ...func(o *Options)) *Extractor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if reg == nil {
		reg = registry.Default()
	}
	return &Extractor{model: m, reg: reg, opts: opts}
}

// Extract generates the report for tr. existing are the persona's stored
// memory texts; they are embedded so the model does not propose them again.
// A malformed memory block is not an error.
func (e *Extractor) Extract(ctx context.Context, tr core.Transcript, prefs core.PreferenceSet, existing []string) (*Result, error) {
	if len(tr) == 0 {
		return nil, core.InvalidInputError(extractOp, "conversation is empty")
	}
	if e.model == nil {
		return nil, core.ConfigurationError(extractOp, "text generation model is not configured")
	}

	req := BuildRequest(e.reg, tr, prefs, existing)
	req.Stream = e.opts.Stream

	info := e.model.Info()
	start := time.Now()
	text, usage, err := model.Collect(e.model.Generate(ctx, req))
	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	if err != nil {
		logging.LogUpstreamCall(e.opts.Logger, "summary", info.Name, tokens, time.Since(start), false, err)
		status := 0
		if e.opts.StatusCode != nil {
			status = e.opts.StatusCode(err)
		}
		return nil, core.UpstreamError(extractOp, status, err)
	}
	if strings.TrimSpace(text) == "" {
		err := core.MalformedUpstreamError(extractOp, "response has no text")
		logging.LogUpstreamCall(e.opts.Logger, "summary", info.Name, tokens, time.Since(start), false, err)
		return nil, err
	}
	logging.LogUpstreamCall(e.opts.Logger, "summary", info.Name, tokens, time.Since(start), true, nil)

	report, memories, ok := ParseReport(text)
	if !ok {
		e.opts.Logger.Warn("memory block missing or malformed; keeping raw report", "model", info.Name)
	}

	return &Result{
		ReportText:     report,
		NewMemories:    memories,
		MemoriesParsed: ok,
		Model:          info.Name,
		Usage:          usage,
	}, nil
}
