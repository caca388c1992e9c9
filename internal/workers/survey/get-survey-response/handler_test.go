package getsurveyresponse

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom-workers/internal/common/errors"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/survey"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func createTestHandler(t *testing.T, db *sql.DB) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, survey.NewRepository(db, nil, 0), logger.NewTestLogger(t))
}

func TestHandler_Execute_Found(t *testing.T) {
	db, mock := setupMockDB(t)
	created := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, category, questions, answers, created_at").
		WithArgs("1e2d3c4b-5a69-4788-9abc-def012345601").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "questions", "answers", "created_at"}).
			AddRow("1e2d3c4b-5a69-4788-9abc-def012345601", "Resale Value",
				[]byte(`[{"question":"How old is your car?","options":["<3y","3-5y","5-10y",">10y"],"correctAnswer":""}]`),
				[]byte(`{"0":"3-5y"}`), created))

	output, err := createTestHandler(t, db).Execute(context.Background(), &Input{SurveyID: "1e2d3c4b-5a69-4788-9abc-def012345601"})
	require.NoError(t, err)
	assert.Equal(t, "1e2d3c4b-5a69-4788-9abc-def012345601", output.Survey.ID)
	assert.Equal(t, "Resale Value", output.Survey.Category)
	require.Len(t, output.Survey.Questions, 1)
	assert.Equal(t, "How old is your car?", output.Survey.Questions[0].Question)
	assert.Equal(t, "3-5y", output.Survey.Answers["0"])
	assert.True(t, created.Equal(output.Survey.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		expect func(mock sqlmock.Sqlmock)
		code   errors.ErrorCode
	}{
		{
			name:   "blank id",
			id:     " ",
			expect: func(sqlmock.Sqlmock) {},
			code:   errors.ErrCodeInvalidInput,
		},
		{
			name: "not found",
			id:   "0b9c3f1e-5a8d-4e2b-8f17-3c6d2a9e4b10",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id").WithArgs("0b9c3f1e-5a8d-4e2b-8f17-3c6d2a9e4b10").WillReturnError(sql.ErrNoRows)
			},
			code: errors.ErrCodeSurveyNotFound,
		},
		{
			name:   "non-uuid id",
			id:     "survey-42",
			expect: func(sqlmock.Sqlmock) {},
			code:   errors.ErrCodeSurveyNotFound,
		},
		{
			name: "query failure",
			id:   "1e2d3c4b-5a69-4788-9abc-def012345601",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id").WithArgs("1e2d3c4b-5a69-4788-9abc-def012345601").WillReturnError(stderrors.New("connection reset"))
			},
			code: errors.ErrCodeQueryExecutionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			tt.expect(mock)

			_, err := createTestHandler(t, db).Execute(context.Background(), &Input{SurveyID: tt.id})
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
