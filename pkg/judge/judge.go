// Package judge submits a skill document to an OpenAI-compatible chat
// completion endpoint and decodes the model's structured opinion of its
// quality. It is the only component in the pipeline that performs network
// I/O; everything else works on data.
package judge

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mguinada/agent-skills/pkg/frontmatter"
	"github.com/mguinada/agent-skills/pkg/logger"
)

// DefaultModel is used when no judge model is configured
const DefaultModel = "gpt-4o-mini"

// criteriaPerCategory ratings of 1-3 each, so a category maxes out at 12
// points before conversion to a percentage.
const (
	criteriaPerCategory = 4
	maxCategoryPoints   = criteriaPerCategory * 3
)

// ErrNotConfigured is returned when the judge endpoint or credential is
// missing. It is surfaced before any network call is attempted.
var ErrNotConfigured = errors.New("judge base URL and API key must be configured")

// Config holds the judge endpoint settings, threaded in explicitly so the
// dependency on process-wide configuration stays at the CLI boundary.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Category holds the four criterion ratings for one evaluation axis, the
// percentage score derived from them, and the model's free-text feedback.
type Category struct {
	Criteria map[string]int `json:"criteria"`
	Score    int            `json:"score"`
	Feedback string         `json:"feedback"`
}

// Evaluation is the judge's full opinion of one skill document. Category and
// overall scores are always derived locally from the criterion ratings; the
// model's own arithmetic is never trusted.
type Evaluation struct {
	Description  Category `json:"description"`
	Content      Category `json:"content"`
	Structure    Category `json:"structure"`
	OverallScore float64  `json:"overall_score"`
	Assessment   string   `json:"assessment"`
	Suggestions  []string `json:"suggestions"`
}

// Evaluator is the narrow boundary the dispatcher depends on, so tests can
// swap the network client for a deterministic stub.
type Evaluator interface {
	Evaluate(ctx context.Context, doc *frontmatter.Document) (*Evaluation, error)
}

// Client calls a chat completion endpoint to evaluate skill documents
type Client struct {
	client *openai.Client
	model  string
}

// NewClient validates the configuration and builds a judge client. Both the
// base URL and the API key are required; a missing value fails fast with
// ErrNotConfigured before any network call.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Evaluate renders the evaluation prompt for the document, makes a single
// chat completion call, and decodes the response. No retries: a failed call
// aborts evaluation for this skill only.
func (c *Client) Evaluate(ctx context.Context, doc *frontmatter.Document) (*Evaluation, error) {
	prompt, err := renderPrompt(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render evaluation prompt")
	}

	log := logger.G(ctx).WithField("model", c.model)
	log.Debug("sending judge request")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("judge returned no completion choices")
	}

	return DecodeEvaluation(resp.Choices[0].Message.Content)
}

// wrapAPIError maps transport failures to one-line diagnostics. A 401-class
// response gets a specific invalid-credentials message.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 {
			return errors.Errorf("invalid judge credentials: %s", apiErr.Message)
		}
		return errors.Errorf("judge request failed with status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 401 {
			return errors.Wrap(err, "invalid judge credentials")
		}
		return errors.Wrapf(err, "judge request failed with status %d", reqErr.HTTPStatusCode)
	}

	return errors.Wrap(err, "judge request failed")
}

// DecodeEvaluation parses the completion text into an Evaluation. Models
// routinely wrap JSON in a fenced code block, so fences are stripped first;
// decoding is idempotent under fence wrapping.
func DecodeEvaluation(text string) (*Evaluation, error) {
	var eval Evaluation
	if err := json.Unmarshal([]byte(stripFences(text)), &eval); err != nil {
		return nil, errors.Wrap(err, "malformed judge response")
	}

	if err := eval.derive(); err != nil {
		return nil, err
	}

	return &eval, nil
}

// stripFences removes a surrounding markdown code fence from the completion
// text. When a fence was removed, a leftover leading `json` label line is
// dropped as well; unfenced text passes through untouched.
func stripFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	fenced := false
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		fenced = true
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	if fenced && len(lines) > 0 && strings.TrimSpace(lines[0]) == "json" {
		lines = lines[1:]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// derive recomputes the category percentages and the overall score from the
// raw criterion ratings.
func (e *Evaluation) derive() error {
	categories := []struct {
		name     string
		category *Category
	}{
		{"description", &e.Description},
		{"content", &e.Content},
		{"structure", &e.Structure},
	}

	total := 0
	for _, c := range categories {
		score, err := c.category.deriveScore()
		if err != nil {
			return errors.Wrapf(err, "malformed judge response: category '%s'", c.name)
		}
		total += score
	}

	e.OverallScore = float64(total) / float64(len(categories))
	return nil
}

// deriveScore converts the criterion ratings to a percentage:
// round(sum/12 * 100).
func (c *Category) deriveScore() (int, error) {
	if len(c.Criteria) != criteriaPerCategory {
		return 0, errors.Errorf("expected %d criterion ratings, got %d", criteriaPerCategory, len(c.Criteria))
	}

	sum := 0
	for name, rating := range c.Criteria {
		if rating < 1 || rating > 3 {
			return 0, errors.Errorf("criterion '%s' rating %d is out of range 1-3", name, rating)
		}
		sum += rating
	}

	c.Score = int(math.Round(float64(sum) / float64(maxCategoryPoints) * 100))
	return c.Score, nil
}
