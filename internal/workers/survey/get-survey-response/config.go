package getsurveyresponse

import "time"

type Config struct {
	Timeout time.Duration
}
