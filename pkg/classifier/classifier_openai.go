package classifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/careline/careline/config"
	"github.com/careline/careline/pkg/models"
)

const OpenAIAPIKeyNotSetError = "CARELINE_OPENAI_API_KEY is not set" //nolint:gosec

var _ models.Classifier = &OpenAIClassifier{}

// OpenAIClassifier asks an OpenAI chat model to classify a message,
// constrained to the known intent vocabulary, and parses the JSON it
// returns.
type OpenAIClassifier struct {
	llm     *openai.Chat
	tkm     *tiktoken.Tiktoken
	intents []string
	timeout time.Duration
	budget  int
}

func NewOpenAIClassifier(
	ctx context.Context,
	cfg *config.Config,
	intents []string,
) (*OpenAIClassifier, error) {
	c := &OpenAIClassifier{intents: intents}
	if err := c.init(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *OpenAIClassifier) init(_ context.Context, cfg *config.Config) error {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return err
	}
	c.tkm = tkm
	c.timeout = apiTimeout(cfg)
	c.budget = tokenBudget(cfg)

	options, err := c.configureClient(cfg)
	if err != nil {
		return err
	}
	llm, err := openai.NewChat(options...)
	if err != nil {
		return err
	}
	c.llm = llm

	return nil
}

func (c *OpenAIClassifier) Classify(
	ctx context.Context,
	message string,
	history []models.DialogTurn,
) (*models.ClassifyResponse, error) {
	if c.llm == nil {
		return nil, NewClassifierError("classifier client is not initialized", nil)
	}

	prompt, err := buildIntentPrompt(c.intents, formatHistory(c.tkm, history, c.budget), message)
	if err != nil {
		return nil, NewClassifierError("error building classifier prompt", err)
	}

	thisCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []schema.ChatMessage{schema.SystemChatMessage{Content: prompt}}
	completion, err := c.llm.Call(thisCtx, messages, llms.WithTemperature(DefaultTemperature))
	if err != nil {
		return nil, NewClassifierError("error calling classifier model", err)
	}

	return parseClassifyCompletion(completion.GetContent())
}

// GetTokenCount returns the number of tokens in the text.
func (c *OpenAIClassifier) GetTokenCount(text string) (int, error) {
	return len(c.tkm.Encode(text, nil, nil)), nil
}

func (c *OpenAIClassifier) configureClient(cfg *config.Config) ([]openai.Option, error) {
	apiKey := cfg.LLM.OpenAIAPIKey
	if apiKey == "" {
		return nil, NewClassifierError(OpenAIAPIKeyNotSetError, nil)
	}

	retryableHTTPClient := NewRetryableHTTPClient(maxAttempts(cfg), apiTimeout(cfg))

	options := []openai.Option{
		openai.WithHTTPClient(retryableHTTPClient.StandardClient()),
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(apiKey),
	}
	if cfg.LLM.OpenAIEndpoint != "" {
		options = append(options, openai.WithBaseURL(cfg.LLM.OpenAIEndpoint))
	}

	return options, nil
}

func parseClassifyCompletion(completion string) (*models.ClassifyResponse, error) {
	raw, ok := extractJSON(completion)
	if !ok {
		return nil, NewClassifierError("no JSON object in classifier completion", nil)
	}

	var resp models.ClassifyResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, NewClassifierError("error unmarshaling classifier completion", err)
	}
	return normalizeResponse(&resp)
}
