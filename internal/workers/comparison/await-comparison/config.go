package awaitcomparison

import "time"

type Config struct {
	// Timeout bounds a whole poll session and should exceed the poll budget.
	Timeout time.Duration
}
