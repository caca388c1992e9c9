package awaitcomparison

import (
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/models"
)

type Input struct {
	ChatID      string       `json:"chatId"`
	MaxAttempts int          `json:"maxAttempts,omitempty"`
	Car1        *models.Car  `json:"car1,omitempty"`
	Car2        *models.Car  `json:"car2,omitempty"`
	Car1ID      models.CarID `json:"car1Id,omitempty"`
	Car2ID      models.CarID `json:"car2Id,omitempty"`
}

// Output is {comparison, source, attempts}.
type Output = comparison.Result
