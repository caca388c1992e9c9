package comparison

import (
	"fmt"
	"strings"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/models"
)

type specs struct {
	power      float64
	efficiency float64
	seats      int
	price      float64
}

func parseSpecs(car models.Car) specs {
	s := specs{seats: catalog.Seats(car.SeatingCapacity)}
	s.power, _ = catalog.LeadingNumber(car.Power)
	s.efficiency, _ = catalog.LeadingNumber(car.FuelEfficiency)
	s.price, _ = catalog.Price(car.Price)
	return s
}

// DirectComparison renders a narrative comparison without calling the chat
// service. Spec values are compared numerically.
func DirectComparison(a, b models.Car) string {
	sa, sb := parseSpecs(a), parseSpecs(b)

	morePowerful := b
	if sa.power > sb.power {
		morePowerful = a
	}
	moreEfficient := b
	if sa.efficiency > sb.efficiency {
		moreEfficient = a
	}
	cheaper := b
	if sa.price < sb.price {
		cheaper = a
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# Comparison: %s vs %s\n\n", a.Name, b.Name)

	out.WriteString("## Performance\n")
	fmt.Fprintf(&out, "The %s features a %s engine producing %s, while the %s comes with a %s engine delivering %s. ",
		a.Name, a.Engine, a.Power, b.Name, b.Engine, b.Power)
	fmt.Fprintf(&out, "The %s offers more power, making it better for performance-oriented drivers.\n\n", morePowerful.Name)

	out.WriteString("## Efficiency\n")
	fmt.Fprintf(&out, "In terms of fuel efficiency, the %s achieves %s while the %s delivers %s. ",
		a.Name, a.FuelEfficiency, b.Name, b.FuelEfficiency)
	fmt.Fprintf(&out, "The %s is more fuel-efficient, making it better for daily commuting and long trips.\n\n", moreEfficient.Name)

	out.WriteString("## Practicality\n")
	fmt.Fprintf(&out, "The %s offers seating for %s, while the %s can accommodate %s passengers. ",
		a.Name, a.SeatingCapacity, b.Name, b.SeatingCapacity)
	switch {
	case sa.seats > sb.seats:
		fmt.Fprintf(&out, "The %s is more suitable for larger families or groups.\n\n", a.Name)
	case sa.seats < sb.seats:
		fmt.Fprintf(&out, "The %s is more suitable for larger families or groups.\n\n", b.Name)
	default:
		out.WriteString("Both vehicles offer the same passenger capacity.\n\n")
	}

	out.WriteString("## Value\n")
	relation := "is more expensive than"
	if sa.price < sb.price {
		relation = "represents better value compared to"
	}
	fmt.Fprintf(&out, "Priced at %s, the %s %s the %s at %s.\n\n", a.Price, a.Name, relation, b.Name, b.Price)

	out.WriteString("## Recommendation\n")
	fmt.Fprintf(&out, "If performance is your priority, the %s is the better choice.\n", morePowerful.Name)
	fmt.Fprintf(&out, "If fuel efficiency matters most, consider the %s.\n", moreEfficient.Name)
	if sa.seats >= sb.seats {
		fmt.Fprintf(&out, "For families, the %s offers equal or better seating capacity.\n", a.Name)
	} else {
		fmt.Fprintf(&out, "For families, the %s offers better seating capacity.\n", b.Name)
	}
	fmt.Fprintf(&out, "If budget is a concern, the %s is more affordable.", cheaper.Name)
	return out.String()
}
