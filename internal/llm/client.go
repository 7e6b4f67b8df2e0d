package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtmcraft_llm_generations_total",
			Help: "LLM generation attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gtmcraft_llm_generation_duration_seconds",
			Help:    "Duration of LLM generation requests.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)
	promptChars = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gtmcraft_llm_prompt_chars",
			Help:    "Size of prompts sent to the LLM in characters.",
			Buckets: prometheus.LinearBuckets(2000, 2000, 10),
		},
		[]string{"provider"},
	)
)

// Reason classifies a failed generation.
type Reason string

const (
	ReasonNotConfigured Reason = "not_configured"
	ReasonRequestFailed Reason = "request_failed"
	ReasonEmptyResponse Reason = "empty_response"
)

// GenerationError is returned for every failed generation. The caller
// decides whether to resubmit; nothing is retried here.
type GenerationError struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *GenerationError) Error() string {
	switch e.Reason {
	case ReasonNotConfigured:
		return "no LLM provider configured"
	case ReasonEmptyResponse:
		return fmt.Sprintf("%s returned an empty response", e.Provider)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Client wraps a Provider with the single-attempt generation contract.
// A nil provider is allowed and makes every call fail as not configured.
type Client struct {
	provider Provider
}

// NewClient creates a client for p.
func NewClient(p Provider) *Client {
	return &Client{provider: p}
}

// Configured reports whether a provider is present.
func (c *Client) Configured() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the provider name or "none".
func (c *Client) ProviderName() string {
	if !c.Configured() {
		return "none"
	}
	return c.provider.Name()
}

// Generate sends prompt once and returns the trimmed response text.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if !c.Configured() {
		generationsTotal.WithLabelValues("none", string(ReasonNotConfigured)).Inc()
		return "", &GenerationError{Provider: "none", Reason: ReasonNotConfigured, Err: ErrNotConfigured}
	}

	name := c.provider.Name()
	promptChars.WithLabelValues(name).Observe(float64(len(prompt)))

	start := time.Now()
	text, err := c.provider.Generate(ctx, prompt, opts.withDefaults())
	generationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		reason := ReasonRequestFailed
		if errors.Is(err, ErrNotConfigured) {
			reason = ReasonNotConfigured
		}
		generationsTotal.WithLabelValues(name, string(reason)).Inc()
		zap.S().Warnf("Generation via %s failed: %v", name, err)
		return "", &GenerationError{Provider: name, Reason: reason, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		generationsTotal.WithLabelValues(name, string(ReasonEmptyResponse)).Inc()
		return "", &GenerationError{Provider: name, Reason: ReasonEmptyResponse}
	}

	generationsTotal.WithLabelValues(name, "success").Inc()
	zap.S().Debugf("Generated %d chars via %s in %s", len(text), name, time.Since(start).Round(time.Millisecond))
	return text, nil
}
