// Package claude is the single-shot Claude client behind the chat route.
package claude

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/config"
	"github.com/rohankatakam/devai/internal/errors"
)

// FallbackModel is tried when the configured model does not exist
const FallbackModel = "claude-3-5-haiku-20241022"

// RequestTimeout bounds one completion
const RequestTimeout = 30 * time.Second

const systemPrompt = `You are a professional project management assistant for DevAI Manager.

RESPONSE FORMATTING RULES:
- Answer questions directly and concisely - never mention 'based on dashboard information' or similar meta-commentary
- Use context to inform answers but express insights in your own words
- Format responses with clear sections and bullet points
- Use **bold** for key metrics and important items
- Structure information hierarchically:
  * Main metrics first (bold)
  * Key insights as bullet points
  * Details in sub-bullets if needed
- For greetings: Brief professional response (1-2 sentences max)
- For data questions: Present metrics clearly, then insights
- Avoid rhetorical questions like 'Would you like me to elaborate?' - just provide the information
- Keep responses focused and actionable - PMs need quick, clear insights`

// Client sends prompts to the Messages API
type Client struct {
	api         anthropic.Client
	models      []string
	maxTokens   int
	temperature float64
	logger      logrus.FieldLogger
}

// NewClient builds a client from configuration. Extra request options are
// appended last, which lets tests point the client at a local server.
func NewClient(cfg config.ClaudeConfig, logger logrus.FieldLogger, extra ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigError("Claude API key missing. Set the ANTHROPIC_API_KEY environment variable.")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(RequestTimeout),
	}
	opts = append(opts, extra...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Client{
		api:         anthropic.NewClient(opts...),
		models:      candidateModels(cfg.Model),
		maxTokens:   maxTokens,
		temperature: 0.2,
		logger:      logger,
	}, nil
}

func candidateModels(configured string) []string {
	var models []string
	for _, m := range []string{configured, FallbackModel} {
		if m == "" {
			continue
		}
		if len(models) > 0 && models[len(models)-1] == m {
			continue
		}
		models = append(models, m)
	}
	return models
}

// Models returns the models tried in order
func (c *Client) Models() []string {
	return append([]string(nil), c.models...)
}

// Complete returns Claude's answer to prompt. A 404 moves on to the next
// candidate model; any other upstream failure is returned at once.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, model := range c.models {
		start := time.Now()
		resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(model),
			MaxTokens:   int64(c.maxTokens),
			Temperature: anthropic.Float(c.temperature),
			System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages: []anthropic.MessageParam{{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
			}},
		})
		if err != nil {
			var apiErr *anthropic.Error
			if stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				c.logger.WithField("model", model).Warn("claude model not found, trying next")
				lastErr = fmt.Errorf("model %s: %w", model, err)
				continue
			}
			if stderrors.As(err, &apiErr) {
				return "", errors.ExternalErrorf(err, "Claude API error (%d)", apiErr.StatusCode)
			}
			return "", errors.ExternalError(err, "Claude request failed")
		}

		c.logger.WithFields(logrus.Fields{
			"model":         model,
			"duration_ms":   time.Since(start).Milliseconds(),
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		}).Debug("claude completion")

		return answerText(resp)
	}
	return "", errors.ExternalError(lastErr, "All model attempts failed")
}

func answerText(resp *anthropic.Message) (string, error) {
	if len(resp.Content) == 0 {
		return "", errors.New(errors.ErrorTypeExternal, errors.SeverityMedium, "Claude API returned an empty response.")
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	answer := strings.TrimSpace(strings.Join(parts, "\n"))
	if answer == "" {
		return "", errors.New(errors.ErrorTypeExternal, errors.SeverityMedium, "Claude API response did not include any text blocks.")
	}
	return answer, nil
}
