package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kilianp07/dayplan/core/logger"
	"github.com/kilianp07/dayplan/core/planner"
)

const systemPrompt = `You classify personal tasks into one of eight multiple-intelligence categories:
linguistic, logical, spatial, bodily_kinesthetic, musical, interpersonal, intrapersonal, naturalistic.
Reply with JSON only: {"intelligence": "<category>"}.`

// OpenAIConfig configures the chat-completion classifier.
type OpenAIConfig struct {
	Model   string        `json:"model"`
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// OpenAIClassifier asks an OpenAI-compatible chat model for the category.
// Errors and answers outside the known categories are delegated to the
// fallback classifier.
type OpenAIClassifier struct {
	client   openai.Client
	model    string
	timeout  time.Duration
	fallback Classifier
	log      logger.Logger
}

// NewOpenAIClassifier creates the classifier. The API key defaults to the
// OPENAI_API_KEY environment variable.
func NewOpenAIClassifier(cfg OpenAIConfig, fallback Classifier, log logger.Logger) (*OpenAIClassifier, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model is required")
	}
	if fallback == nil {
		fallback = NewKeywordClassifier("")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OpenAIClassifier{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		fallback: fallback,
		log:      log,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, description string) (string, error) {
	tag, err := c.ask(ctx, description)
	if err != nil {
		c.log.Warnf("openai classification failed, using fallback: %v", err)
		return c.fallback.Classify(ctx, description)
	}
	if !planner.KnownCategory(tag) {
		c.log.Warnf("openai returned unknown category %q, using fallback", tag)
		return c.fallback.Classify(ctx, description)
	}
	return planner.CanonicalCategory(tag), nil
}

func (c *OpenAIClassifier) ask(ctx context.Context, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(description),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	return parseAnswer(resp.Choices[0].Message.Content), nil
}

// parseAnswer accepts {"intelligence": "..."} or a bare category name.
func parseAnswer(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")
	var out struct {
		Intelligence string `json:"intelligence"`
	}
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &out); err == nil {
			return out.Intelligence
		}
	}
	return strings.Trim(content, `"'.`)
}
