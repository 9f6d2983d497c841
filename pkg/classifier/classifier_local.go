package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/careline/careline/config"
	"github.com/careline/careline/pkg/models"
)

var _ models.Classifier = &LocalClassifier{}

// LocalClassifier posts messages to a self-hosted classification
// service speaking the same JSON contract as the OpenAI path.
type LocalClassifier struct {
	url      string
	intents  []string
	timeout  time.Duration
	attempts uint
}

type localClassifyRequest struct {
	Message string   `json:"message"`
	History []string `json:"history,omitempty"`
	Intents []string `json:"intents"`
}

func NewLocalClassifier(cfg *config.Config, intents []string) (*LocalClassifier, error) {
	if cfg.Classifier.ServerURL == "" {
		return nil, NewClassifierError("classifier server URL is not set", nil)
	}
	return &LocalClassifier{
		url:      cfg.Classifier.ServerURL + "/classify",
		intents:  intents,
		timeout:  apiTimeout(cfg),
		attempts: uint(maxAttempts(cfg)),
	}, nil
}

func (c *LocalClassifier) Classify(
	ctx context.Context,
	message string,
	history []models.DialogTurn,
) (*models.ClassifyResponse, error) {
	transcript := make([]string, 0, len(history)*2)
	for _, turn := range history {
		transcript = append(transcript, "Caller: "+turn.Message, "Agent: "+turn.Reply)
	}

	jsonBody, err := json.Marshal(localClassifyRequest{
		Message: message,
		History: transcript,
		Intents: c.intents,
	})
	if err != nil {
		return nil, NewClassifierError("error marshaling classify request", err)
	}

	var bodyBytes []byte
	err = retry.Do(
		func() error {
			var err error
			bodyBytes, err = c.makeClassifyRequest(ctx, jsonBody)
			return err
		},
		retry.Attempts(c.attempts),
		retry.Delay(time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, NewClassifierError("error calling classifier service", err)
	}

	var resp models.ClassifyResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, NewClassifierError("error unmarshaling classify response", err)
	}
	return normalizeResponse(&resp)
}

func (c *LocalClassifier) makeClassifyRequest(ctx context.Context, jsonBody []byte) ([]byte, error) {
	httpClient := &http.Client{Timeout: c.timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier service returned %d - %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
