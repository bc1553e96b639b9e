// Package drafter produces candidate replies and extracted facts from
// recruiter messages using an LLM provider.
package drafter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/profile"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
	"github.com/aria-ai/recruiter-agent/pkg/metrics"
)

// ErrEmptyDraft is returned when the provider produced no usable text.
var ErrEmptyDraft = errors.New("provider returned an empty draft")

// Request is the snapshot a draft is generated from.
type Request struct {
	Channel    model.Channel
	Stage      model.Stage
	Facts      model.Facts
	History    []model.Message // bounded by the caller
	NewMessage string
}

// Drafter turns an inbound message plus conversation snapshot into a draft.
type Drafter interface {
	Draft(ctx context.Context, req *Request) (*model.Draft, error)
	Name() string
}

// CompletionRequest represents one provider completion call.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a provider completion result.
type CompletionResponse struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a provider client.
func NewClient(provider Provider, apiKey, model string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// LLMDrafter is the production Drafter: it builds stage- and channel-aware
// prompts, calls the provider and parses the structured reply.
type LLMDrafter struct {
	client  Client
	profile *profile.Profile
	prompts *profile.Prompts
	logger  *logger.Logger
}

// New creates a drafter over a provider client.
func New(client Client, prof *profile.Profile, prompts *profile.Prompts, log *logger.Logger) *LLMDrafter {
	return &LLMDrafter{
		client:  client,
		profile: prof,
		prompts: prompts,
		logger:  log,
	}
}

// Name returns the underlying provider name.
func (d *LLMDrafter) Name() string {
	return d.client.Name()
}

// Draft generates a reply for one inbound message. Partial or malformed
// provider output is locally defaulted; only provider failures and unusable
// output surface as errors.
func (d *LLMDrafter) Draft(ctx context.Context, req *Request) (*model.Draft, error) {
	start := time.Now()

	resp, err := d.client.Complete(ctx, &CompletionRequest{
		System:      d.systemPrompt(req.Stage, req.Channel),
		User:        d.userPrompt(req),
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		metrics.RecordDraft(d.client.Name(), "error", time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if resp.Content == "" {
		metrics.RecordDraft(d.client.Name(), "empty", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
		return nil, ErrEmptyDraft
	}

	draft, err := parseDraft(resp.Content, req.NewMessage, req.Stage, d.prompts)
	if err != nil {
		metrics.RecordDraft(d.client.Name(), "malformed", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
		return nil, err
	}

	metrics.RecordDraft(d.client.Name(), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	d.logger.Debug("draft generated",
		zap.String("provider", d.client.Name()),
		zap.String("suggested_stage", string(draft.SuggestedStage)),
		zap.Float64("confidence", draft.Confidence),
	)
	return draft, nil
}
