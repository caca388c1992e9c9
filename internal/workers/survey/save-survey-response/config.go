package savesurveyresponse

import "time"

type Config struct {
	Timeout time.Duration
}
