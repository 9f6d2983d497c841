package classifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkoukk/tiktoken-go"

	"github.com/careline/careline/config"
	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
)

const DefaultTemperature = 0.0

const (
	DefaultAPITimeout  = 20 * time.Second
	DefaultMaxAttempts = 3
	DefaultTokenBudget = 1500
)

var log = internal.GetLogger()

var validate = validator.New()

// NewClassifier returns the fallback intent classifier configured by
// cfg.Classifier.Service. intents is the known intent vocabulary the
// classifier is allowed to answer with.
func NewClassifier(ctx context.Context, cfg *config.Config, intents []string) (models.Classifier, error) {
	switch cfg.Classifier.Service {
	case "openai", "":
		return NewOpenAIClassifier(ctx, cfg, intents)
	case "local":
		return NewLocalClassifier(cfg, intents)
	default:
		return nil, fmt.Errorf("invalid classifier service: %s", cfg.Classifier.Service)
	}
}

type ClassifierError struct {
	message       string
	originalError error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier error: %s (original error: %v)", e.message, e.originalError)
}

func (e *ClassifierError) Unwrap() error {
	return e.originalError
}

func NewClassifierError(message string, originalError error) *ClassifierError {
	return &ClassifierError{message: message, originalError: originalError}
}

func apiTimeout(cfg *config.Config) time.Duration {
	if cfg.Classifier.TimeoutSecs > 0 {
		return time.Duration(cfg.Classifier.TimeoutSecs) * time.Second
	}
	return DefaultAPITimeout
}

func maxAttempts(cfg *config.Config) int {
	if cfg.Classifier.MaxAttempts > 0 {
		return cfg.Classifier.MaxAttempts
	}
	return DefaultMaxAttempts
}

func tokenBudget(cfg *config.Config) int {
	if cfg.Classifier.TokenBudget > 0 {
		return cfg.Classifier.TokenBudget
	}
	return DefaultTokenBudget
}

func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = log
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy

	return retryableHTTPClient
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// Do not retry 400 errors as they're used by OpenAI to indicate maximum
	// context length exceeded
	if resp != nil && resp.StatusCode == 400 {
		return false, err
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}

// formatHistory renders recent turns oldest-first as a transcript,
// dropping the oldest turns when the rendered text would exceed the
// token budget. tkm may be nil, in which case the budget is not
// enforced.
func formatHistory(tkm *tiktoken.Tiktoken, history []models.DialogTurn, budget int) string {
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history)*2)
	for _, turn := range history {
		lines = append(lines,
			"Caller: "+turn.Message,
			"Agent: "+turn.Reply,
		)
	}

	transcript := strings.Join(lines, "\n")
	if tkm == nil || budget <= 0 {
		return transcript
	}

	// drop from the front, two lines per turn
	for len(lines) > 0 && len(tkm.Encode(transcript, nil, nil)) > budget {
		lines = lines[2:]
		transcript = strings.Join(lines, "\n")
	}
	return transcript
}

// normalizeResponse validates and canonicalizes a raw classifier reply.
func normalizeResponse(resp *models.ClassifyResponse) (*models.ClassifyResponse, error) {
	resp.Intent = models.Intent(strings.TrimSpace(strings.ToLower(string(resp.Intent))))
	resp.Urgency = models.Urgency(strings.TrimSpace(strings.ToLower(string(resp.Urgency))))
	if resp.Urgency == "" {
		resp.Urgency = models.UrgencyLow
	}
	if err := validate.Struct(resp); err != nil {
		return nil, NewClassifierError("invalid classifier response", err)
	}
	return resp, nil
}
