package startcomparison

import "showroom-workers/internal/models"

// Input names the two cars either by catalog reference (id or model name) or
// inline. Inline cars win over references.
type Input struct {
	Car1ID models.CarID `json:"car1Id,omitempty"`
	Car2ID models.CarID `json:"car2Id,omitempty"`
	Car1   *models.Car  `json:"car1,omitempty"`
	Car2   *models.Car  `json:"car2,omitempty"`
}

type Output struct {
	ChatID    string     `json:"chatId"`
	MessageID string     `json:"messageId"`
	Query     string     `json:"query"`
	Car1      models.Car `json:"car1"`
	Car2      models.Car `json:"car2"`
}
