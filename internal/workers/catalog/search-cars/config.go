package searchcars

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}
