package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/careline/config"
	"github.com/careline/careline/pkg/models"
)

func localClassifierConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Classifier.Service = "local"
	cfg.Classifier.ServerURL = url
	cfg.Classifier.MaxAttempts = 1
	cfg.Classifier.TimeoutSecs = 2
	return cfg
}

func TestLocalClassifierClassify(t *testing.T) {
	var gotRequest localClassifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		_ = json.NewEncoder(w).Encode(models.ClassifyResponse{
			Intent:  "billing",
			Urgency: models.UrgencyMedium,
		})
	}))
	defer server.Close()

	classifier, err := NewLocalClassifier(localClassifierConfig(server.URL), []string{"billing", "payment"})
	require.NoError(t, err)

	resp, err := classifier.Classify(context.Background(), "my invoice looks wrong", []models.DialogTurn{
		{Message: "hi", Reply: "Main Menu"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Intent("billing"), resp.Intent)
	assert.Equal(t, models.UrgencyMedium, resp.Urgency)

	assert.Equal(t, "my invoice looks wrong", gotRequest.Message)
	assert.Equal(t, []string{"billing", "payment"}, gotRequest.Intents)
	assert.Equal(t, []string{"Caller: hi", "Agent: Main Menu"}, gotRequest.History)
}

func TestLocalClassifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	classifier, err := NewLocalClassifier(localClassifierConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = classifier.Classify(context.Background(), "hello", nil)
	assert.Error(t, err)
}

func TestNewLocalClassifierRequiresURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Classifier.Service = "local"

	_, err := NewLocalClassifier(cfg, nil)
	assert.Error(t, err)
}
