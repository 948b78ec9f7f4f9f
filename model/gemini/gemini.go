// Package gemini provides a model.Model backed by Google's Gemini API via the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/hupe1980/parlance/model"
)

// DefaultModel is the Gemini model used when Options.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// Options configures the Gemini adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
	BaseURL         string
}

// Model wraps genai.Client.Models behind model.Model. The client is created
// on first use because construction needs a context.
type Model struct {
	opts Options

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewModel creates a Gemini model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:           DefaultModel,
		Temperature:     0.7,
		MaxOutputTokens: 2000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Model{opts: opts}
}

func (m *Model) getClient(ctx context.Context) (*genai.Client, error) {
	m.once.Do(func() {
		if m.opts.APIKey == "" {
			m.clientErr = errors.New("gemini api key is required")
			return
		}
		cfg := &genai.ClientConfig{
			APIKey:  m.opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if m.opts.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: m.opts.BaseURL}
		}
		m.client, m.clientErr = genai.NewClient(ctx, cfg)
	})
	return m.client, m.clientErr
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		client, err := m.getClient(ctx)
		if err != nil {
			errCh <- fmt.Errorf("gemini client: %w", err)
			return
		}

		contents := buildContents(req.Messages)
		config := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(m.opts.Temperature),
			MaxOutputTokens: m.opts.MaxOutputTokens,
		}
		if req.Instructions != "" {
			config.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
		}

		if req.Stream {
			var text strings.Builder
			for chunk, err := range client.Models.GenerateContentStream(ctx, m.opts.Model, contents, config) {
				if err != nil {
					errCh <- fmt.Errorf("gemini streaming error: %w", err)
					return
				}
				if delta := chunk.Text(); delta != "" {
					text.WriteString(delta)
					out <- model.Response{Partial: true, Text: delta}
				}
			}
			out <- model.Response{Text: text.String(), FinishReason: "stop"}
			return
		}

		resp, err := client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}

		r := model.Response{Text: resp.Text(), FinishReason: "stop"}
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			r.FinishReason = strings.ToLower(string(resp.Candidates[0].FinishReason))
		}
		if u := resp.UsageMetadata; u != nil {
			r.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}
		out <- r
	}()

	return out, errCh
}

func buildContents(msgs []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := genai.Role(genai.RoleUser)
		if msg.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	return contents
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}

// StatusCode extracts the HTTP status from a genai API error, or 0.
func StatusCode(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return v.Code
		case *genai.APIError:
			return v.Code
		}
	}
	return 0
}
