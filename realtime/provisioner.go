package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/logging"
)

const provisionOp = "realtime.provision"

// ProvisionerOptions configures the credential provisioner.
type ProvisionerOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Provisioner exchanges a ConfigPayload for an ephemeral client credential.
// It makes exactly one request per call and never retries.
type Provisioner struct {
	opts   ProvisionerOptions
	client *openai.Client
}

// NewProvisioner creates a Provisioner. Without an API key every Provision
// call fails with a configuration error.
func NewProvisioner(optFns ...func(o *ProvisionerOptions)) *Provisioner {
	opts := ProvisionerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	p := &Provisioner{opts: opts}
	if opts.APIKey == "" {
		return p
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	client := openai.NewClient(clientOpts...)
	p.client = &client
	return p
}

// Configured reports whether provisioning credentials are present.
func (p *Provisioner) Configured() bool { return p.client != nil }

type secretResponse struct {
	ClientSecret *struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// Provision requests a client credential for payload. The returned
// Credential carries the payload's model and instructions; the caller fills
// in the persona.
func (p *Provisioner) Provision(ctx context.Context, payload ConfigPayload) (*core.Credential, error) {
	if p.client == nil {
		return nil, core.ConfigurationError(provisionOp, "realtime api key is not configured")
	}

	start := time.Now()
	var res secretResponse
	err := p.client.Post(ctx, "realtime/client_secrets", map[string]any{"session": payload}, &res)
	if err != nil {
		status := statusOf(err)
		logging.LogUpstreamCall(p.opts.Logger, "realtime", payload.Model, 0, time.Since(start), false, err)
		return nil, core.UpstreamError(provisionOp, status, err)
	}

	secret, expires := res.Value, res.ExpiresAt
	if res.ClientSecret != nil && res.ClientSecret.Value != "" {
		secret = res.ClientSecret.Value
		if res.ClientSecret.ExpiresAt != 0 {
			expires = res.ClientSecret.ExpiresAt
		}
	}
	if secret == "" {
		err := core.MalformedUpstreamError(provisionOp, "response has no client secret")
		logging.LogUpstreamCall(p.opts.Logger, "realtime", payload.Model, 0, time.Since(start), false, err)
		return nil, err
	}
	logging.LogUpstreamCall(p.opts.Logger, "realtime", payload.Model, 0, time.Since(start), true, nil)

	cred := &core.Credential{
		Secret:       secret,
		Model:        payload.Model,
		Instructions: payload.Instructions,
	}
	if expires > 0 {
		cred.ExpiresAt = time.Unix(expires, 0).UTC()
	}
	return cred, nil
}

func statusOf(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
