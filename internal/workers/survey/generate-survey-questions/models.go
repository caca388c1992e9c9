package generatesurveyquestions

import "showroom-workers/internal/models"

type Input struct {
	Category string `json:"category"`
	Count    int    `json:"count,omitempty"`
	// Refresh skips the cached question set.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Category  string       `json:"category"`
	Questions []models.MCQ `json:"questions"`
	Cached    bool         `json:"cached"`
}
