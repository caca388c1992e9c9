package startcomparison

import "time"

type Config struct {
	Timeout time.Duration
}
