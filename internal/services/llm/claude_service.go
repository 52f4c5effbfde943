package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API. It provides chat and single-image vision completions.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// Compile-time interface assertion
var _ interfaces.LLMService = (*ClaudeService)(nil)

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam
// format. System messages are extracted separately for the System parameter;
// the first one wins. Requires at least one user message.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			// Unknown roles default to user
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a new Claude LLM service instance. The API key is
// resolved env-first (ANTHROPIC_API_KEY, GRADUS_CLAUDE_API_KEY, then
// claude.api_key in config); a missing key is a construction error, which the
// caller treats as fatal.
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, GRADUS_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	service := &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", claudeConfig.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Msg("Starting Claude chat completion")

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	response, err := s.generateCompletion(timeoutCtx, claudeMessages, systemText)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude chat completion completed")

	return response, nil
}

// Vision generates a completion for a single user turn combining prompt text
// with one inlined base64-encoded PNG image.
func (s *ClaudeService) Vision(ctx context.Context, prompt string, imagePNGBase64 string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty for vision completion")
	}
	if imagePNGBase64 == "" {
		return "", fmt.Errorf("image data cannot be empty for vision completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("image_length", len(imagePNGBase64)).
		Msg("Starting Claude vision completion")

	claudeMessages := []anthropic.MessageParam{
		anthropic.NewUserMessage(
			anthropic.NewTextBlock(prompt),
			anthropic.NewImageBlockBase64("image/png", imagePNGBase64),
		),
	}

	response, err := s.generateCompletion(timeoutCtx, claudeMessages, "")
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(prompt)).
			Msg("Claude vision completion failed")
		return "", fmt.Errorf("vision completion failed: %w", err)
	}

	s.logger.Debug().
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude vision completion completed")

	return response, nil
}

// HealthCheck verifies the Claude service is operational with a minimal probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running Claude LLM service health check")

	if s.client == nil {
		return fmt.Errorf("Claude client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	testMessages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
	}

	response, err := s.generateCompletion(healthCheckCtx, testMessages, "")
	if err != nil {
		return fmt.Errorf("Claude health check failed: %w", err)
	}

	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Claude probe returned empty response")
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("Claude LLM service health check passed")

	return nil
}

// GetMode returns the current operational mode of the LLM service.
func (s *ClaudeService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources and performs cleanup operations.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude LLM service")
	// Claude client doesn't require explicit cleanup
	s.client = nil
	return nil
}

// generateCompletion encapsulates the Claude API call shared by chat, vision,
// and the health probe.
func (s *ClaudeService) generateCompletion(ctx context.Context, claudeMessages []anthropic.MessageParam, systemText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}

	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	return response.String(), nil
}
