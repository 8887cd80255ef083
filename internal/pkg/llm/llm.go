// Package llm wraps language-model calls behind a strict-schema JSON
// contract with adapter-owned retries and per-attempt latency accounting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jetai "go.jetify.com/ai"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
)

const maxTransportAttempts = 3

// backoffs[i] is slept before attempt i+1.
var backoffs = [maxTransportAttempts]time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond}

// Meta identifies the call site on every log record.
type Meta struct {
	Stage         string
	PromptVersion string
	PromptHash    string
	RequestID     string
	TraceID       string
	SessionID     string
}

// Request is one strict-schema completion.
type Request struct {
	System          string
	Prompt          string
	Schema          Schema
	Model           string // override; empty uses the configured default
	MaxOutputTokens int
	Meta            Meta
}

// Client issues completions against the configured model provider.
type Client struct {
	cfg        config.ModelConfig
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a model client. The logger must be non-nil.
func New(cfg config.ModelConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		logger:     logger.Named("llm"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CompleteJSON asks the model for a JSON value conforming to req.Schema and
// decodes it strictly into out. Transport failures are retried up to three
// attempts with 0/500/1500ms backoff; parse and schema failures are not
// retried. If out implements Validate() error it is run as defense in depth.
func (c *Client) CompleteJSON(ctx context.Context, req Request, out interface{}) error {
	t0 := time.Now()

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = strings.TrimSpace(c.cfg.Name)
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxOutputTokens
	}

	systemPrompt := schemaSystemPrompt(req.System, req.Schema)
	promptChars := len([]rune(systemPrompt)) + len([]rune(req.Prompt))
	promptHash := hashPrefix(systemPrompt + "\x00" + req.Prompt)
	buildPromptMs := time.Since(t0).Milliseconds() // t1 - t0

	var lastErr error
	for attempt := 1; attempt <= maxTransportAttempts; attempt++ {
		if err := sleepBackoff(ctx, backoffs[attempt-1]); err != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		t2 := time.Now()
		raw, inTokens, outTokens, callErr := c.complete(ctx, modelID, systemPrompt, req, maxTokens)
		networkMs := time.Since(t2).Milliseconds() // t3 - t2

		t3 := time.Now()
		var parseErr error
		if callErr == nil {
			parseErr = decodeModelJSON(raw, out)
			if parseErr == nil {
				if v, ok := out.(interface{ Validate() error }); ok {
					if verr := v.Validate(); verr != nil {
						parseErr = fmt.Errorf("%w: %v", ErrSchema, verr)
					}
				}
			}
		}
		parseMs := time.Since(t3).Milliseconds() // t4 - t3
		totalMs := time.Since(t0).Milliseconds() // t4 - t0

		outcome, finalErr := resolveOutcome(callErr, parseErr)
		c.logAttempt(req, modelID, attempt, outcome, finalErr, attemptTimings{
			buildPromptMs: buildPromptMs,
			networkMs:     networkMs,
			parseMs:       parseMs,
			totalMs:       totalMs,
			inputTokens:   inTokens,
			outputTokens:  outTokens,
			promptChars:   promptChars,
			promptHash:    promptHash,
		})

		if finalErr == nil {
			return nil
		}
		lastErr = finalErr
		if !errors.Is(finalErr, ErrTransport) && !errors.Is(finalErr, ErrTimeout) {
			return finalErr
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
	}
	return lastErr
}

func (c *Client) complete(ctx context.Context, modelID, systemPrompt string, req Request, maxTokens int) (raw string, inTokens, outTokens int, err error) {
	if isOpenAICompatible(c.cfg.Provider) {
		return c.chatCompletionsJSON(ctx, modelID, systemPrompt, req.Prompt, req.Schema, maxTokens)
	}

	model, err := buildLanguageModel(c.cfg, modelID)
	if err != nil {
		return "", 0, 0, err
	}
	resp, err := jetai.GenerateText(
		ctx,
		buildPromptMessages(systemPrompt, req.Prompt),
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(maxTokens),
	)
	if err != nil {
		return "", 0, 0, err
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", 0, 0, err
	}
	return text, resp.Usage.InputTokens, resp.Usage.OutputTokens, nil
}

type attemptTimings struct {
	buildPromptMs int64
	networkMs     int64
	parseMs       int64
	totalMs       int64
	inputTokens   int
	outputTokens  int
	promptChars   int
	promptHash    string
}

// resolveOutcome collapses call and parse errors into an outcome tag and
// the error to surface. Transport classification decides retryability.
func resolveOutcome(callErr, parseErr error) (string, error) {
	switch {
	case callErr == nil && parseErr == nil:
		return "ok", nil
	case callErr != nil:
		if errors.Is(callErr, ErrTransport) {
			return "transport_error", callErr
		}
		if classified := classifyTransport(callErr); classified != nil {
			if errors.Is(classified, ErrTimeout) {
				return "timeout", fmt.Errorf("%w: %v", ErrTimeout, callErr)
			}
			return "transport_error", fmt.Errorf("%w: %v", ErrTransport, callErr)
		}
		return "error", callErr
	default:
		return "schema_error", parseErr
	}
}

func (c *Client) logAttempt(req Request, modelID string, attempt int, outcome string, err error, t attemptTimings) {
	fields := []zap.Field{
		zap.String("stage", req.Meta.Stage),
		zap.Int("attempt", attempt),
		zap.String("outcome", outcome),
		zap.Int64("buildPromptMs", t.buildPromptMs),
		zap.Int64("networkMs", t.networkMs),
		zap.Int64("parseMs", t.parseMs),
		zap.Int64("totalMs", t.totalMs),
		zap.Int("inputTokens", t.inputTokens),
		zap.Int("outputTokens", t.outputTokens),
		zap.Int("promptChars", t.promptChars),
		zap.String("promptHash", t.promptHash),
		zap.String("model", modelID),
		zap.String("schema", req.Schema.Name),
		zap.String("schemaVersion", req.Schema.Version),
		zap.String("schemaHash", req.Schema.Hash()),
		zap.String("promptVersion", req.Meta.PromptVersion),
		zap.String("requestId", req.Meta.RequestID),
		zap.String("traceId", req.Meta.TraceID),
	}
	if req.Meta.PromptHash != "" {
		fields = append(fields, zap.String("templateHash", req.Meta.PromptHash))
	}
	if req.Meta.SessionID != "" {
		fields = append(fields, zap.String("sessionId", req.Meta.SessionID))
	}
	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
		c.logger.Warn("model_call", fields...)
		return
	}
	c.logger.Info("model_call", fields...)
}

func sleepBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func schemaSystemPrompt(system string, schema Schema) string {
	var b strings.Builder
	if strings.TrimSpace(system) != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object conforming to this JSON Schema (")
	b.WriteString(schema.Name)
	b.WriteString(" ")
	b.WriteString(schema.Version)
	b.WriteString("):\n")
	b.WriteString(schema.Raw)
	b.WriteString("\nOutput only the JSON object. No code fences, no commentary.")
	return b.String()
}
