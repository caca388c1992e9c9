package savesurveyresponse

import (
	"showroom-workers/internal/models"
	"showroom-workers/internal/survey"
)

type Input struct {
	Category  string               `json:"category"`
	Questions []models.MCQ         `json:"questions"`
	Answers   models.SurveyAnswers `json:"answers"`
	UserID    string               `json:"userId"`
}

type Output = survey.SaveResult
