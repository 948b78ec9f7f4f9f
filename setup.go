package parlance

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/parlance/config"
	"github.com/hupe1980/parlance/logging"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/model/anthropic"
	"github.com/hupe1980/parlance/model/gemini"
	"github.com/hupe1980/parlance/model/openai"
	"github.com/hupe1980/parlance/realtime"
	"github.com/hupe1980/parlance/registry"
	"github.com/hupe1980/parlance/store"
)

// NewFromConfig builds a Parlance from loaded configuration. Missing API keys
// leave the affected operation unconfigured instead of failing here.
func NewFromConfig(cfg *config.Config, logger logging.Logger) (*Parlance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNoOp(logger)

	reg := registry.Default()
	if cfg.Registry.PersonasFile != "" {
		r, err := registry.Load(cfg.Registry.PersonasFile)
		if err != nil {
			return nil, err
		}
		reg = r
	}

	var prov *realtime.Provisioner
	if cfg.Realtime.APIKey != "" {
		prov = realtime.NewProvisioner(func(o *realtime.ProvisionerOptions) {
			o.APIKey = cfg.Realtime.APIKey
			o.BaseURL = cfg.Realtime.BaseURL
			o.Logger = logger
		})
	} else {
		logger.Warn("realtime api key not set; start-session requests will fail")
	}

	m, statusCode := newSummaryModel(cfg.Summary)
	if m == nil {
		logger.Warn("summary api key not set; summary requests will fail", "provider", cfg.Summary.Provider)
	}

	var sqlite *store.SQLiteStore
	if cfg.Store.Driver == config.DriverSQLite {
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		sqlite = s
	}

	return New(func(o *Options) {
		o.Registry = reg
		if prov != nil {
			o.Provisioner = prov
		}
		if m != nil {
			o.Model = m
		}
		o.StatusCode = statusCode
		o.StreamSummary = cfg.Summary.Stream
		o.ConfigOptions = []func(o *realtime.ConfigOptions){func(co *realtime.ConfigOptions) {
			if cfg.Realtime.Model != "" {
				co.Model = cfg.Realtime.Model
			}
			if cfg.Realtime.TranscriptionModel != "" {
				co.TranscriptionModel = cfg.Realtime.TranscriptionModel
			}
		}}
		if sqlite != nil {
			o.MemoryStore = sqlite
			o.RecordStore = sqlite
		}
		o.Logger = logger
	}), nil
}

func newSummaryModel(cfg config.SummaryConfig) (model.Model, func(error) int) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), anthropic.StatusCode
	case config.ProviderGemini:
		return gemini.NewModel(func(o *gemini.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = float32(cfg.Temperature)
			o.MaxOutputTokens = int32(cfg.MaxTokens)
		}), gemini.StatusCode
	default:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), openai.StatusCode
	}
}
