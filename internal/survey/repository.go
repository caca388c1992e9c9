package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"showroom-workers/internal/models"
)

var ErrNotFound = errors.New("survey not found")

const responseCachePrefix = "survey:response:"

type SaveRequest struct {
	Category  string
	Questions []models.MCQ
	Answers   models.SurveyAnswers
	UserID    string
}

type SaveResult struct {
	SurveyID  string `json:"surveyId"`
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// Repository stores survey responses in Postgres and caches reads in Redis.
// A nil cache disables caching.
type Repository struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	newID    func() string
	now      func() time.Time
}

func NewRepository(db *sql.DB, cache *redis.Client, cacheTTL time.Duration) *Repository {
	return &Repository{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Save writes the survey, a chat titled after its category and the opening
// user message in one transaction.
func (r *Repository) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	questionsJSON, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	text := OpeningMessage(req.Category, req.Questions, req.Answers)
	partsJSON, err := json.Marshal([]map[string]string{{"type": "text", "text": text}})
	if err != nil {
		return nil, fmt.Errorf("marshal message parts: %w", err)
	}

	result := &SaveResult{SurveyID: r.newID(), ChatID: r.newID(), MessageID: r.newID()}
	now := r.now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO survey_responses (id, category, questions, answers, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		result.SurveyID, req.Category, questionsJSON, answersJSON, now,
	); err != nil {
		return nil, fmt.Errorf("insert survey response: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, title, user_id, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		result.ChatID, "Survey: "+req.Category, req.UserID, "private", now,
	); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		result.MessageID, result.ChatID, "user", partsJSON, []byte("[]"), now,
	); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.store(ctx, &models.SurveyResponse{
		ID:        result.SurveyID,
		Category:  req.Category,
		Questions: req.Questions,
		Answers:   req.Answers,
		CreatedAt: now,
	})
	return result, nil
}

// Get loads a survey response, trying the cache first. Ids that are not
// UUIDs cannot exist and report ErrNotFound without a query.
func (r *Repository) Get(ctx context.Context, id string) (*models.SurveyResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if r.cache != nil {
		if val, err := r.cache.Get(ctx, responseCachePrefix+id).Result(); err == nil {
			var cached models.SurveyResponse
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var (
		resp               models.SurveyResponse
		questions, answers []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, category, questions, answers, created_at
		FROM survey_responses
		WHERE id = $1`, id).Scan(&resp.ID, &resp.Category, &questions, &answers, &resp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query survey %s: %w", id, err)
	}

	if err := json.Unmarshal(questions, &resp.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(answers, &resp.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}

	r.store(ctx, &resp)
	return &resp, nil
}

func (r *Repository) store(ctx context.Context, resp *models.SurveyResponse) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	r.cache.Set(ctx, responseCachePrefix+resp.ID, data, r.cacheTTL)
}
