package saveuser

import "time"

type Config struct {
	Timeout time.Duration
}
