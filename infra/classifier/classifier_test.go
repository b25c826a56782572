package classifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier("")
	cases := map[string]string{
		"Finish calculus homework": "logical",
		"Read chapter 3":           "linguistic",
		"練習鋼琴":                     "musical",
		"Evening yoga":             "bodily_kinesthetic",
		"Team meeting":             "interpersonal",
		"Water the garden":         "naturalistic",
		"Laundry":                  "general",
	}
	for desc, want := range cases {
		got, err := c.Classify(context.Background(), desc)
		require.NoError(t, err)
		assert.Equal(t, want, got, desc)
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, `{"error":{"message":"down"}}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","created":0,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q}}]}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClassifier_ParsesJSONAnswer(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"intelligence": "Musical"}`)
	c, err := New(Config{Kind: "openai", OpenAI: OpenAIConfig{Model: "m", BaseURL: srv.URL, APIKey: "k"}}, nil)
	require.NoError(t, err)
	got, err := c.Classify(context.Background(), "something vague")
	require.NoError(t, err)
	assert.Equal(t, "musical", got)
}

func TestOpenAIClassifier_ChineseAnswer(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "人際關係智能")
	c, err := NewOpenAIClassifier(OpenAIConfig{Model: "m", BaseURL: srv.URL, APIKey: "k"}, nil, nil)
	require.NoError(t, err)
	got, err := c.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "interpersonal", got)
}

func TestOpenAIClassifier_FallsBack(t *testing.T) {
	down := chatServer(t, http.StatusInternalServerError, "")
	c, err := NewOpenAIClassifier(OpenAIConfig{Model: "m", BaseURL: down.URL, APIKey: "k"}, NewKeywordClassifier("misc"), nil)
	require.NoError(t, err)
	got, err := c.Classify(context.Background(), "piano practice")
	require.NoError(t, err)
	assert.Equal(t, "musical", got)

	odd := chatServer(t, http.StatusOK, "cooking")
	c, err = NewOpenAIClassifier(OpenAIConfig{Model: "m", BaseURL: odd.URL, APIKey: "k"}, NewKeywordClassifier("misc"), nil)
	require.NoError(t, err)
	got, err = c.Classify(context.Background(), "laundry")
	require.NoError(t, err)
	assert.Equal(t, "misc", got)
}

func TestConfig_Validate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{Kind: "openai"}.Validate())
	assert.Error(t, Config{Kind: "bayes"}.Validate())
}

func TestParseAnswer(t *testing.T) {
	assert.Equal(t, "logical", parseAnswer("```json\n{\"intelligence\":\"logical\"}\n```"))
	assert.Equal(t, "spatial", parseAnswer(" spatial. "))
}
