package getsurveyresponse

import "showroom-workers/internal/models"

type Input struct {
	SurveyID string `json:"surveyId"`
}

type Output struct {
	Survey models.SurveyResponse `json:"survey"`
}
