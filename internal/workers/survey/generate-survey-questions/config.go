package generatesurveyquestions

import "time"

type Config struct {
	Timeout       time.Duration
	QuestionCount int
}
