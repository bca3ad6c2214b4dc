package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/util"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ModelManager routes generation requests to Gemini and, when configured,
// retries the OpenAI fallback before giving up. A shared circuit breaker
// guards both providers: rate limits and upstream failures trip it, caller
// mistakes (bad prompts, malformed JSON) do not.
type ModelManager struct {
	gemini         *GeminiProvider
	openai         *OpenAIProvider
	logger         *zap.Logger
	enableFallback bool
	breaker        *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	mm := &ModelManager{
		gemini: NewGeminiProvider(geminiClient, orDefault(cfg.DefaultGeminiModel, "gemini-2.5-flash"), logger),
		openai: NewOpenAIProvider(cfg.OpenAIAPIKey, orDefault(cfg.DefaultOpenAIModel, "gpt-4.1-mini"), logger),
		logger: logger,
	}
	mm.enableFallback = cfg.EnableFallback && mm.openai != nil
	if mm.enableFallback {
		logger.Info("OpenAI fallback enabled", zap.String("model", orDefault(cfg.DefaultOpenAIModel, "gpt-4.1-mini")))
	}

	mm.breaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.pingProviders,
		logger,
	)

	return mm, nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// GetGeminiClient exposes the raw client for image generation, which goes
// through a different API surface than text.
func (mm *ModelManager) GetGeminiClient() *genai.Client {
	if mm.gemini == nil {
		return nil
	}
	return mm.gemini.Client()
}

// CircuitStatus reports the breaker state for the status endpoint.
func (mm *ModelManager) CircuitStatus() util.CircuitBreakerStatus {
	return mm.breaker.GetStatus()
}

// GenerateJSON asks the providers for a JSON document and unmarshals it into
// dest. The primary is always tried first; the fallback only runs when the
// primary errors, never on a decode failure.
func (mm *ModelManager) GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error) {
	if !mm.breaker.CanExecute() {
		status := mm.breaker.GetStatus()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = util.FormatChurchTime(*status.NextRetryTime, "15:04")
		}

		mm.logger.Error("AI circuit open, refusing request",
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)
		return nil, fmt.Errorf("AI service temporarily unavailable, next retry at %s", nextRetry)
	}

	var options GenerateOptions
	if opts != nil {
		options = *opts
	}
	options.JSONMode = true

	providers := []TextProvider{mm.gemini}
	if mm.enableFallback {
		providers = append(providers, mm.openai)
	}

	var failures []error
	for i, provider := range providers {
		result, err := provider.Generate(ctx, prompt, preset, &options)
		if err != nil {
			failures = append(failures, err)
			continue
		}

		mm.breaker.RecordSuccess()
		metadata := &GenerateMetadata{
			Provider:     provider.Name(),
			Model:        result.Model,
			UsedFallback: i > 0,
		}
		if err := mm.decodeInto(result.Text, metadata, dest); err != nil {
			return nil, err
		}
		return metadata, nil
	}

	degraded := false
	for _, err := range failures {
		if class := classifyProviderError(err); class != errCaller {
			mm.noteFailure(class)
			degraded = true
		}
	}
	if degraded {
		return nil, fmt.Errorf("AI service is experiencing issues, please retry shortly")
	}
	return nil, failures[len(failures)-1]
}

func (mm *ModelManager) decodeInto(text string, metadata *GenerateMetadata, dest any) error {
	cleaned := stripCodeFence(strings.TrimSpace(text))
	if cleaned == "" {
		return fmt.Errorf("%s API returned empty response", metadata.Provider)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", cleaned[:util.Min(len(cleaned), 200)]),
		)
		return fmt.Errorf("invalid JSON from %s: %w", metadata.Provider, err)
	}
	return nil
}

// stripCodeFence unwraps a ```json ... ``` (or bare ```) block if the model
// ignored the response MIME type and fenced its output anyway.
func stripCodeFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	case strings.HasPrefix(s, "```"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func (mm *ModelManager) noteFailure(class providerErrorClass) {
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if class == errRateLimited {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.breaker.RecordFailure(timeout)
}

func (mm *ModelManager) pingProviders() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	geminiOK := mm.gemini != nil && mm.gemini.Ping(ctx)
	openaiOK := mm.enableFallback && mm.openai.Ping(ctx)

	mm.logger.Info("AI health check",
		zap.Bool("gemini", geminiOK),
		zap.Bool("openai", openaiOK),
	)
	return geminiOK || openaiOK
}

// providerErrorClass sorts generation errors into the caller's fault versus
// conditions that should trip the breaker.
type providerErrorClass int

const (
	errCaller providerErrorClass = iota
	errRateLimited
	errUpstream
)

// Both SDKs surface HTTP status codes only inside the error text, in
// slightly different framings, so classification is string matching.
var statusCodePattern = regexp.MustCompile(`\b(\d{3})\b`)

func classifyProviderError(err error) providerErrorClass {
	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit") || strings.Contains(msg, "quota") {
		return errRateLimited
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "ETIMEDOUT") {
		return errUpstream
	}
	for _, match := range statusCodePattern.FindAllString(msg, -1) {
		if code, err := strconv.Atoi(match); err == nil && code >= 500 && code < 600 {
			return errUpstream
		}
	}
	return errCaller
}
