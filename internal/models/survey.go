package models

import "time"

const (
	SurveyCategoryRecommendations = "Car Recommendations"
	SurveyCategoryParts           = "Parts & Accessories"
	SurveyCategoryMaintenance     = "Maintenance"
	SurveyCategoryResale          = "Resale Value"
)

// SurveyCategories lists the categories offered by the survey wizard.
var SurveyCategories = []string{
	SurveyCategoryRecommendations,
	SurveyCategoryParts,
	SurveyCategoryMaintenance,
	SurveyCategoryResale,
}

type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// SurveyAnswers maps a question index ("0", "1", ...) to the chosen option.
type SurveyAnswers map[string]string

type SurveyResponse struct {
	ID        string        `json:"id"`
	Category  string        `json:"category"`
	Questions []MCQ         `json:"questions"`
	Answers   SurveyAnswers `json:"answers"`
	CreatedAt time.Time     `json:"createdAt"`
}
