package buildsurveyprompt

import "time"

type Config struct {
	Timeout time.Duration
}
