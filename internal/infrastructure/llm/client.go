package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labelscan/backend/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	maxAttempts        = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 500
)

// chatCompleter is the part of the go-openai client used here
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures a Client
type Options struct {
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client sends label photos to an OpenAI-compatible chat completions API
type Client struct {
	api         chatCompleter
	model       string
	maxTokens   int
	rateLimiter *rate.Limiter
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new vision model client
func NewClient(apiKey, baseURL string, opts Options) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		rateLimiter: newLimiter(opts.RequestsPerMinute),
		backoffBase: defaultBackoffBase,
	}
}

// newLimiter converts a per-minute budget into a token bucket.
// A non-positive budget disables limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// SetDebug enables or disables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[LLM] "+format, args...)
	}
}

// backoffFrom returns the wait before the next attempt: base, 2*base, 4*base...
func backoffFrom(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// AnalyzeLabel sends the image with the label prompt and returns the model's raw text answer
func (c *Client) AnalyzeLabel(ctx context.Context, image *domain.LabelImage) (string, error) {
	if image == nil || len(image.Data) == 0 {
		return "", domain.ErrInvalidRequest
	}

	request := buildRequest(c.model, c.maxTokens, image)
	c.debugLog("AnalyzeLabel called: model=%s bytes=%d type=%s", c.model, len(image.Data), image.ContentType)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[LLM] Rate limiter error: %v", err)
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, ctx.Err())
			}
			// the request budget cannot be met before ctx's deadline
			return "", fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.api.CreateChatCompletion(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, ctx.Err())
			}
			lastErr = fmt.Errorf("%w: %w", domain.ErrLLMAPIFailure, err)
			if !isRetryable(err) {
				log.Printf("[LLM] Request failed (attempt %d), not retrying: %v", attempt, err)
				return "", lastErr
			}
			log.Printf("[LLM] Request error (attempt %d): %v", attempt, err)
			if attempt < maxAttempts {
				if err := sleepContext(ctx, backoffFrom(c.backoffBase, attempt)); err != nil {
					return "", fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, err)
				}
			}
			continue
		}

		content := firstContent(resp)
		if content == "" {
			return "", domain.ErrEmptyCompletion
		}

		c.debugLog("Raw model response: %s", content)
		return content, nil
	}

	log.Printf("[LLM] All %d attempts failed", maxAttempts)
	if statusCode(lastErr) == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %w", domain.ErrRateLimited, lastErr)
	}
	return "", lastErr
}

func firstContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// isRetryable retries transport failures, 429 and 5xx; other API errors are final
func isRetryable(err error) bool {
	status := statusCode(err)
	if status == 0 {
		return true
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
