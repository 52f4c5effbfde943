// -----------------------------------------------------------------------
// Model Gateway - wraps an LLM service with the grader's best-effort
// failure policy. Every call is attempted exactly once; a failure is
// logged, audited, and mapped to a sentinel string so the grading run
// degrades instead of aborting. The underlying error stays available on
// the result for callers that need to distinguish failure from content.
// -----------------------------------------------------------------------

package grading

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gradus/internal/interfaces"
	"github.com/ternarybob/gradus/internal/services/llm"
)

// Sentinel text substituted into report output when a model call fails.
const (
	ChatFailedSentinel   = "[ERROR: Chat API failed]"
	VisionFailedSentinel = "[ERROR: Vision API failed]"
)

// CallResult is the outcome of one model call. Text is always usable for
// report output; on failure it holds the sentinel and Err the cause.
type CallResult struct {
	Text string
	Err  error
}

func (r CallResult) Failed() bool {
	return r.Err != nil
}

// Gateway adapts an injected LLM service to the grader's call policy.
type Gateway struct {
	service  interfaces.LLMService
	provider string
	audit    llm.AuditLogger
	logger   arbor.ILogger
}

// NewGateway creates a gateway over the given service. audit may be nil
// when call auditing is disabled.
func NewGateway(service interfaces.LLMService, provider string, audit llm.AuditLogger, logger arbor.ILogger) *Gateway {
	return &Gateway{
		service:  service,
		provider: provider,
		audit:    audit,
		logger:   logger,
	}
}

// CompleteChat runs one chat completion under the gateway policy.
func (g *Gateway) CompleteChat(ctx context.Context, messages []interfaces.Message) CallResult {
	started := time.Now()
	text, err := g.service.Chat(ctx, messages)
	duration := time.Since(started)

	promptText := ""
	if len(messages) > 0 {
		promptText = messages[len(messages)-1].Content
	}
	if g.audit != nil {
		if auditErr := g.audit.LogChat(g.provider, err == nil, duration, err, promptText); auditErr != nil {
			g.logger.Warn().Err(auditErr).Msg("Failed to write chat audit record")
		}
	}

	if err != nil {
		g.logger.Warn().
			Str("provider", g.provider).
			Err(err).
			Msg("Chat completion failed, continuing with sentinel")
		return CallResult{Text: ChatFailedSentinel, Err: err}
	}
	return CallResult{Text: text}
}

// CompleteVision runs one vision completion under the gateway policy.
func (g *Gateway) CompleteVision(ctx context.Context, prompt string, image interfaces.EncodedImage) CallResult {
	started := time.Now()
	text, err := g.service.Vision(ctx, prompt, string(image))
	duration := time.Since(started)

	if g.audit != nil {
		if auditErr := g.audit.LogVision(g.provider, err == nil, duration, err, prompt); auditErr != nil {
			g.logger.Warn().Err(auditErr).Msg("Failed to write vision audit record")
		}
	}

	if err != nil {
		g.logger.Warn().
			Str("provider", g.provider).
			Err(err).
			Msg("Vision completion failed, continuing with sentinel")
		return CallResult{Text: VisionFailedSentinel, Err: err}
	}
	return CallResult{Text: text}
}
