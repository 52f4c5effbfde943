package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using Google Gemini.
// It provides chat and single-image vision completions.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// Compile-time interface assertion
var _ interfaces.LLMService = (*GeminiService)(nil)

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format. System messages are extracted separately for SystemInstruction;
// the first one wins. Requires at least one user message.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			// Unknown roles default to user
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance. The API key is
// resolved env-first (GEMINI_API_KEY, GRADUS_GEMINI_API_KEY, GOOGLE_API_KEY,
// then gemini.api_key in config); a missing key is a construction error,
// which the caller treats as fatal.
func NewGeminiService(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY, GRADUS_GEMINI_API_KEY, or gemini.api_key in config): %w", err)
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", geminiConfig.Temperature).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Msg("Starting Gemini chat completion")

	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	response, err := s.generateCompletion(timeoutCtx, geminiContents, systemText)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Gemini chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini chat completion completed")

	return response, nil
}

// Vision generates a completion for a single user turn combining prompt text
// with one inlined base64-encoded PNG image.
func (s *GeminiService) Vision(ctx context.Context, prompt string, imagePNGBase64 string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty for vision completion")
	}

	imageData, err := base64.StdEncoding.DecodeString(imagePNGBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	if len(imageData) == 0 {
		return "", fmt.Errorf("image data cannot be empty for vision completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("image_bytes", len(imageData)).
		Msg("Starting Gemini vision completion")

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(prompt),
				genai.NewPartFromBytes(imageData, "image/png"),
			},
		},
	}

	response, err := s.generateCompletion(timeoutCtx, contents, "")
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(prompt)).
			Msg("Gemini vision completion failed")
		return "", fmt.Errorf("vision completion failed: %w", err)
	}

	s.logger.Debug().
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini vision completion completed")

	return response, nil
}

// HealthCheck verifies the Gemini service is operational with a minimal probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running Gemini LLM service health check")

	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText("ping")},
		},
	}

	response, err := s.generateCompletion(healthCheckCtx, contents, "")
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}

	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Gemini probe returned empty response")
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("Gemini LLM service health check passed")

	return nil
}

// GetMode returns the current operational mode of the LLM service.
func (s *GeminiService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases resources and performs cleanup operations.
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini LLM service")

	// genai.Client doesn't require explicit Close
	s.client = nil

	return nil
}

// generateCompletion encapsulates the Gemini API call shared by chat, vision,
// and the health probe.
func (s *GeminiService) generateCompletion(ctx context.Context, contents []*genai.Content, systemText string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}

	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	// Iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini API")
	}

	return response.String(), nil
}
