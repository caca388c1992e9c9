package searchcars

import "showroom-workers/internal/models"

const (
	SourceElasticsearch = "elasticsearch"
	SourceCatalog       = "catalog"
)

type Input struct {
	Keywords string  `json:"keywords,omitempty"`
	MinSeats int     `json:"minSeats,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
	From     int     `json:"from,omitempty"`
	Size     int     `json:"size,omitempty"`
}

type Output struct {
	Cars   []models.Car `json:"cars"`
	Total  int64        `json:"total"`
	From   int          `json:"from"`
	Size   int          `json:"size"`
	Source string       `json:"source"`
}
