package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom-workers/internal/models"
	"showroom-workers/internal/survey"
	"showroom-workers/pkg/registry"
)

const shippedRegistry = "../../configs/activity-registry.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// newChatServer accepts chat creation and answers polls with reply once
// readyOn GET requests have been made. A zero readyOn never answers.
func newChatServer(t *testing.T, readyOn int32, reply string) (*httptest.Server, *int32) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "private", body["selectedVisibilityType"])
			w.WriteHeader(http.StatusOK)
			return
		}
		n := atomic.AddInt32(&polls, 1)
		if readyOn > 0 && n >= readyOn {
			_, _ = w.Write([]byte(reply))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)
	return server, &polls
}

func TestCompareCmd_AssistantAnswer(t *testing.T) {
	server, polls := newChatServer(t, 2, `[
		{"role":"user","id":"m1","content":"compare"},
		{"role":"assistant","id":"m2","content":"The Camry wins on comfort."}
	]`)

	out, err := execute(t, "compare", "8", "Hyrider", "--chat-url", server.URL, "--delay", "0s", "--json")
	require.NoError(t, err)

	var got struct {
		ChatID     string `json:"chatId"`
		Car1       string `json:"car1"`
		Car2       string `json:"car2"`
		Comparison string `json:"comparison"`
		Source     string `json:"source"`
		Attempts   int    `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.ChatID)
	assert.Equal(t, "Camry", got.Car1)
	assert.Equal(t, "Hyrider", got.Car2)
	assert.Equal(t, "The Camry wins on comfort.", got.Comparison)
	assert.Equal(t, "assistant", got.Source)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(polls))
}

func TestCompareCmd_UnknownCar(t *testing.T) {
	server, polls := newChatServer(t, 0, "")

	_, err := execute(t, "compare", "8", "Supra", "--chat-url", server.URL, "--delay", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "car not found: Supra")
	assert.Zero(t, atomic.LoadInt32(polls))
}

func TestPollCmd_FallsBackAfterBudget(t *testing.T) {
	server, polls := newChatServer(t, 0, "")

	out, err := execute(t, "poll", "chat-7", "--chat-url", server.URL, "--delay", "0s",
		"--attempts", "2", "--car1", "Fortuner", "--car2", "Hilux")
	require.NoError(t, err)

	assert.Contains(t, out, "chat: chat-7")
	assert.Contains(t, out, "source: fallback (after 2 attempts)")
	assert.Contains(t, out, "Fortuner")
	assert.Contains(t, out, "Hilux")
	assert.Equal(t, int32(2), atomic.LoadInt32(polls))
}

func TestPollCmd_NoticeWithoutCars(t *testing.T) {
	server, _ := newChatServer(t, 0, "")

	out, err := execute(t, "poll", "chat-7", "--chat-url", server.URL, "--delay", "0s", "--attempts", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "source: notice")
}

func TestCatalogListCmd(t *testing.T) {
	out, err := execute(t, "catalog", "list", "--json")
	require.NoError(t, err)

	var page struct {
		Cars  []models.Car `json:"cars"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 10, page.Total)
	assert.Len(t, page.Cars, 10)

	out, err = execute(t, "catalog", "list", "--keywords", "hybrid", "--min-seats", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Vellfire")
	assert.NotContains(t, out, "Camry")
	assert.Contains(t, out, "1 of 1 cars")
}

func TestRegistryValidateCmd(t *testing.T) {
	out, err := execute(t, "registry", "validate", "--path", shippedRegistry)
	require.NoError(t, err)
	assert.Contains(t, out, "Registry validation passed. Found 9 activities.")
}

func copyRegistry(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(shippedRegistry)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRegistryUpdateCmd(t *testing.T) {
	path := copyRegistry(t)

	out, err := execute(t, "registry", "update", "search-cars", "--field", "status", "--value", "verified", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated activity search-cars, field status to verified")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find("search-cars")
	require.True(t, ok)
	assert.Equal(t, "verified", a.ImplementationStatus)

	_, err = execute(t, "registry", "update", "search-cars", "--field", "retries", "--value", "many", "--path", path)
	assert.Error(t, err)
}

func TestRegistryAddCmd_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new-registry.json")

	_, err := execute(t, "registry", "add", "rank-cars", "--display-name", "Rank Cars", "--category", "catalog", "--path", path)
	require.NoError(t, err)

	out, err := execute(t, "registry", "list", "--path", path, "--json")
	require.NoError(t, err)

	var activities []registry.Activity
	require.NoError(t, json.Unmarshal([]byte(out), &activities))
	require.Len(t, activities, 1)
	assert.Equal(t, "rank-cars", activities[0].TaskType)
	assert.Equal(t, "planned", activities[0].ImplementationStatus)
}

func TestRunSurveyPrompt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	questions, _ := json.Marshal([]models.MCQ{
		{Question: "How often do you drive on highways?", Options: []string{"Daily", "Weekly"}},
	})
	mock.ExpectQuery("SELECT id, category, questions, answers, created_at").
		WithArgs("3e2d3c4b-5a69-4788-9abc-def012345603").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "questions", "answers", "created_at"}).
			AddRow("3e2d3c4b-5a69-4788-9abc-def012345603", "Maintenance", questions, []byte(`{"0":"Daily"}`), time.Now()))

	var out bytes.Buffer
	jsonOutput = false
	render = false
	require.NoError(t, runSurveyPrompt(context.Background(), &out, survey.NewRepository(db, nil, 0), "3e2d3c4b-5a69-4788-9abc-def012345603"))

	assert.Contains(t, out.String(), "Here are my responses to the Maintenance survey")
	assert.Contains(t, out.String(), "My Answer: Daily")
	assert.Contains(t, out.String(), "maintenance plan")
	assert.NoError(t, mock.ExpectationsWereMet())
}
