package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	commonhttp "showroom-workers/internal/common/http"
	"showroom-workers/internal/models"
)

var (
	ErrDifyAPI           = errors.New("dify api error")
	ErrDifyTimeout       = errors.New("dify request timed out")
	ErrInvalidGeneration = errors.New("invalid question generation output")
)

const difyUser = "survey-user-toyota-backend"

const questionSetSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["text", "options"],
				"properties": {
					"text": {"type": "string", "minLength": 1},
					"type": {"type": "string"},
					"options": {
						"type": "array",
						"minItems": 2,
						"items": {"type": "string"}
					}
				}
			}
		}
	}
}`

var questionSetLoader = gojsonschema.NewStringLoader(questionSetSchema)

type DifyConfig struct {
	BaseURL    string
	APIKey     string
	User       string
	MaxRetries int
	// BaseBackoff is doubled after every failed attempt.
	BaseBackoff time.Duration
}

type DifyClient struct {
	config DifyConfig
	client *commonhttp.Client
}

func NewDifyClient(cfg DifyConfig, client *commonhttp.Client) *DifyClient {
	if cfg.User == "" {
		cfg.User = difyUser
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &DifyClient{
		config: cfg,
		client: client.WithHeader("Authorization", "Bearer "+cfg.APIKey),
	}
}

type chatMessageRequest struct {
	Inputs       map[string]string `json:"inputs"`
	Query        string            `json:"query"`
	User         string            `json:"user"`
	ResponseMode string            `json:"response_mode"`
}

// GenerateQuestions asks Dify for count multiple-choice questions about category.
func (c *DifyClient) GenerateQuestions(ctx context.Context, category string, count int) ([]models.MCQ, error) {
	ctx, span := otel.Tracer("showroom-workers/survey").Start(ctx, "dify.chat-messages")
	defer span.End()
	span.SetAttributes(attribute.String("survey.category", category))

	req := chatMessageRequest{
		Inputs:       map[string]string{"category": category},
		Query:        QuestionPrompt(category, count),
		User:         c.config.User,
		ResponseMode: "blocking",
	}

	answer, err := c.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	questions, err := ParseQuestions(answer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("survey.questions", len(questions)))
	return questions, nil
}

func (c *DifyClient) send(ctx context.Context, body chatMessageRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrDifyTimeout
			}
		}

		resp, err := c.client.PostJSON(ctx, c.config.BaseURL+"/v1/chat-messages", body)
		if err != nil {
			if isTimeout(ctx, err) {
				return "", ErrDifyTimeout
			}
			lastErr = fmt.Errorf("%w: %v", ErrDifyAPI, err)
			continue
		}

		if !resp.OK() {
			lastErr = fmt.Errorf("%w: status %d: %s", ErrDifyAPI, resp.StatusCode, string(resp.Body))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var decoded struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(resp.Body, &decoded); err != nil {
			return "", fmt.Errorf("%w: decode response: %v", ErrInvalidGeneration, err)
		}
		if strings.TrimSpace(decoded.Answer) == "" {
			return "", fmt.Errorf("%w: response did not contain an 'answer' field", ErrInvalidGeneration)
		}
		return decoded.Answer, nil
	}
	return "", lastErr
}

func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ParseQuestions pulls the JSON object out of an LLM answer, validates it and
// maps it to MCQs.
func ParseQuestions(answer string) ([]models.MCQ, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in answer", ErrInvalidGeneration)
	}
	payload := answer[start : end+1]

	result, err := gojsonschema.Validate(questionSetLoader, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidGeneration, strings.Join(msgs, "; "))
	}

	var set struct {
		Questions []struct {
			Text    string   `json:"text"`
			Options []string `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}

	mcqs := make([]models.MCQ, 0, len(set.Questions))
	for _, q := range set.Questions {
		mcqs = append(mcqs, models.MCQ{
			Question:      q.Text,
			Options:       q.Options,
			CorrectAnswer: "",
		})
	}
	return mcqs, nil
}
