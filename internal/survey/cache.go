package survey

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"showroom-workers/internal/models"
)

const questionCachePrefix = "survey:questions:"

// QuestionCache keeps generated question sets per category.
type QuestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuestionCache(client *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{client: client, ttl: ttl}
}

func QuestionCacheKey(category string) string {
	return questionCachePrefix + slug(category)
}

// Get reports a miss for absent, unreadable or empty entries.
func (c *QuestionCache) Get(ctx context.Context, category string) ([]models.MCQ, bool) {
	val, err := c.client.Get(ctx, QuestionCacheKey(category)).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []models.MCQ
	if err := json.Unmarshal(val, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) Set(ctx context.Context, category string, questions []models.MCQ) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, QuestionCacheKey(category), data, c.ttl).Err()
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
