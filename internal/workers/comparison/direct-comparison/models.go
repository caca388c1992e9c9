package directcomparison

import "showroom-workers/internal/models"

type Input struct {
	Car1ID models.CarID `json:"car1Id,omitempty"`
	Car2ID models.CarID `json:"car2Id,omitempty"`
	Car1   *models.Car  `json:"car1,omitempty"`
	Car2   *models.Car  `json:"car2,omitempty"`
}

type Output struct {
	Comparison string `json:"comparison"`
	Source     string `json:"source"`
}
