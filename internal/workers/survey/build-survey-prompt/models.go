package buildsurveyprompt

type Input struct {
	SurveyID string `json:"surveyId"`
}

// Output carries an empty prompt with Found false when the survey is unknown,
// so the process can start a plain chat instead.
type Output struct {
	Prompt   string `json:"prompt"`
	Found    bool   `json:"found"`
	Category string `json:"category,omitempty"`
}
