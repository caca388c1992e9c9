package buildsurveyprompt

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/models"
	"showroom-workers/internal/survey"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func storedSurvey() models.SurveyResponse {
	return models.SurveyResponse{
		ID:       "6f1c2b7e-2d4a-4c55-9a0e-0c8f4b1e9a01",
		Category: "Parts & Accessories",
		Questions: []models.MCQ{
			{Question: "Which accessory matters most?", Options: []string{"Roof rack", "Dashcam", "Seat covers", "Floor mats"}},
		},
		Answers:   models.SurveyAnswers{"0": "Dashcam"},
		CreatedAt: time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Execute_FromCache(t *testing.T) {
	db, mock := setupMockDB(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	s := storedSurvey()
	data, _ := json.Marshal(s)
	require.NoError(t, mr.Set("survey:response:6f1c2b7e-2d4a-4c55-9a0e-0c8f4b1e9a01", string(data)))

	h := NewHandler(&Config{Timeout: time.Second}, survey.NewRepository(db, cache, time.Minute), logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{SurveyID: "6f1c2b7e-2d4a-4c55-9a0e-0c8f4b1e9a01"})
	require.NoError(t, err)

	assert.True(t, output.Found)
	assert.Equal(t, "Parts & Accessories", output.Category)
	assert.Equal(t, survey.BuildPrompt(s), output.Prompt)
	assert.Contains(t, output.Prompt, "- **Which accessory matters most?**\n  - My Answer: Dashcam")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotFoundIsNotFatal(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT id").WithArgs("0b9c3f1e-5a8d-4e2b-8f17-3c6d2a9e4b10").WillReturnError(sql.ErrNoRows)

	h := NewHandler(&Config{Timeout: time.Second}, survey.NewRepository(db, nil, 0), logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{SurveyID: "0b9c3f1e-5a8d-4e2b-8f17-3c6d2a9e4b10"})
	require.NoError(t, err)
	assert.Equal(t, &Output{}, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NonUUIDIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	h := NewHandler(&Config{Timeout: time.Second}, survey.NewRepository(db, nil, 0), logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{SurveyID: "not-a-uuid"})
	require.NoError(t, err)
	assert.False(t, output.Found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_BlankID(t *testing.T) {
	db, _ := setupMockDB(t)
	h := NewHandler(&Config{Timeout: time.Second}, survey.NewRepository(db, nil, 0), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.False(t, output.Found)
	assert.Empty(t, output.Prompt)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT id").WithArgs("6f1c2b7e-2d4a-4c55-9a0e-0c8f4b1e9a01").WillReturnError(stderrors.New("too many connections"))

	h := NewHandler(&Config{Timeout: time.Second}, survey.NewRepository(db, nil, 0), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{SurveyID: "6f1c2b7e-2d4a-4c55-9a0e-0c8f4b1e9a01"})
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, stdErr.Code)
}
