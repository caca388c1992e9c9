package catalog

import (
	"strings"

	"showroom-workers/internal/models"
)

type Catalog struct {
	cars []models.Car
}

func New(cars []models.Car) *Catalog {
	copied := make([]models.Car, len(cars))
	copy(copied, cars)
	return &Catalog{cars: copied}
}

// Default returns the showroom line-up.
func Default() *Catalog {
	return New(defaultCars)
}

func (c *Catalog) All() []models.Car {
	out := make([]models.Car, len(c.cars))
	copy(out, c.cars)
	return out
}

// Find resolves a car by id or by case-insensitive name.
func (c *Catalog) Find(ref string) (models.Car, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Car{}, false
	}
	for _, car := range c.cars {
		if string(car.ID) == ref {
			return car, true
		}
	}
	for _, car := range c.cars {
		if strings.EqualFold(car.Name, ref) {
			return car, true
		}
	}
	return models.Car{}, false
}

type Criteria struct {
	Keywords string  `json:"keywords,omitempty"`
	MinSeats int     `json:"minSeats,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
	From     int     `json:"from,omitempty"`
	Size     int     `json:"size,omitempty"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps pagination to the allowed window.
func (c Criteria) Normalize() Criteria {
	if c.From < 0 {
		c.From = 0
	}
	if c.Size < 1 {
		c.Size = defaultPageSize
	}
	if c.Size > maxPageSize {
		c.Size = maxPageSize
	}
	return c
}

// Filter applies criteria in memory and returns the requested page plus the
// total number of matches.
func (c *Catalog) Filter(criteria Criteria) ([]models.Car, int) {
	criteria = criteria.Normalize()
	terms := strings.Fields(strings.ToLower(criteria.Keywords))

	var matched []models.Car
	for _, car := range c.cars {
		if !matchesTerms(car, terms) {
			continue
		}
		if criteria.MinSeats > 0 && Seats(car.SeatingCapacity) < criteria.MinSeats {
			continue
		}
		if criteria.MaxPrice > 0 {
			price, ok := Price(car.Price)
			if !ok || price > criteria.MaxPrice {
				continue
			}
		}
		matched = append(matched, car)
	}

	total := len(matched)
	if criteria.From >= total {
		return []models.Car{}, total
	}
	end := criteria.From + criteria.Size
	if end > total {
		end = total
	}
	return matched[criteria.From:end], total
}

func matchesTerms(car models.Car, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(car.Name + " " + car.Engine + " " + car.Transmission)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

var defaultCars = []models.Car{
	{
		ID: "1", Name: "Land Cruiser", Image: "/images/landcruiser.jpeg",
		Engine: "3.3L Twin-Turbo V6 Diesel", Power: "309 HP", Torque: "700 Nm",
		Transmission: "10-speed Automatic", FuelEfficiency: "8.9 km/l",
		SeatingCapacity: "7", Price: "$85,000",
	},
	{
		ID: "2", Name: "Glanza", Image: "/images/glanza.jpg",
		Engine: "1.2L K-Series Petrol", Power: "83 HP", Torque: "113 Nm",
		Transmission: "5-speed Manual/CVT", FuelEfficiency: "22.3 km/l",
		SeatingCapacity: "5", Price: "$12,500",
	},
	{
		ID: "3", Name: "Rumion", Image: "/images/Rumion.jpg",
		Engine: "1.5L K-Series Petrol", Power: "103 HP", Torque: "138 Nm",
		Transmission: "5-speed Manual/4-speed Automatic", FuelEfficiency: "20.1 km/l",
		SeatingCapacity: "7", Price: "$16,800",
	},
	{
		ID: "4", Name: "Vellfire", Image: "/images/vellfire.jpeg",
		Engine: "2.5L Hybrid", Power: "197 HP", Torque: "239 Nm",
		Transmission: "E-CVT", FuelEfficiency: "19.2 km/l",
		SeatingCapacity: "7", Price: "$75,000",
	},
	{
		ID: "5", Name: "Innova", Image: "/images/innova.png",
		Engine: "2.0L Petrol/2.4L Diesel", Power: "174 HP", Torque: "197 Nm",
		Transmission: "6-speed Manual/Automatic", FuelEfficiency: "16.5 km/l",
		SeatingCapacity: "7/8", Price: "$32,000",
	},
	{
		ID: "6", Name: "Fortuner", Image: "/images/fortuner.jpeg",
		Engine: "2.8L Turbo Diesel", Power: "204 HP", Torque: "500 Nm",
		Transmission: "6-speed Automatic", FuelEfficiency: "14.2 km/l",
		SeatingCapacity: "7", Price: "$42,000",
	},
	{
		ID: "7", Name: "Urban Cruiser", Image: "/images/urban cruiser.jpg",
		Engine: "1.5L K-Series Petrol", Power: "103 HP", Torque: "138 Nm",
		Transmission: "5-speed Manual/4-speed Automatic", FuelEfficiency: "18.8 km/l",
		SeatingCapacity: "5", Price: "$14,500",
	},
	{
		ID: "8", Name: "Camry", Image: "/images/camry.jpeg",
		Engine: "2.5L Hybrid", Power: "218 HP", Torque: "221 Nm",
		Transmission: "E-CVT", FuelEfficiency: "23.4 km/l",
		SeatingCapacity: "5", Price: "$39,000",
	},
	{
		ID: "9", Name: "Hyrider", Image: "/images/hyrider.jpg",
		Engine: "1.5L Strong Hybrid", Power: "115 HP", Torque: "141 Nm",
		Transmission: "e-Drive", FuelEfficiency: "27.5 km/l",
		SeatingCapacity: "5", Price: "$22,000",
	},
	{
		ID: "10", Name: "Hilux", Image: "/images/hilux.jpg",
		Engine: "2.8L Turbo Diesel", Power: "204 HP", Torque: "500 Nm",
		Transmission: "6-speed Automatic", FuelEfficiency: "12.8 km/l",
		SeatingCapacity: "5", Price: "$35,000",
	},
}
