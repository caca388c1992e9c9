package comparison

import (
	"fmt"
	"strings"

	"showroom-workers/internal/models"
)

// GenerateQuery renders the chat prompt asking the assistant to compare a and b.
func GenerateQuery(a, b models.Car) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please provide a detailed comparison between %s and %s with the following specifications:\n\n", a.Name, b.Name)
	writeSpecs(&sb, a)
	sb.WriteString("\n")
	writeSpecs(&sb, b)
	sb.WriteString("\nPlease highlight the key differences between these cars and provide recommendations based on different use cases and priorities (e.g., performance, fuel efficiency, family use, value for money , without creating a document).")
	return sb.String()
}

func writeSpecs(sb *strings.Builder, car models.Car) {
	fmt.Fprintf(sb, "%s:\n", car.Name)
	writeSpecBullets(sb, car)
}

func writeSpecBullets(sb *strings.Builder, car models.Car) {
	fmt.Fprintf(sb, "- Engine: %s\n", car.Engine)
	fmt.Fprintf(sb, "- Power: %s\n", car.Power)
	fmt.Fprintf(sb, "- Torque: %s\n", car.Torque)
	fmt.Fprintf(sb, "- Transmission: %s\n", car.Transmission)
	fmt.Fprintf(sb, "- Fuel Efficiency: %s\n", car.FuelEfficiency)
	fmt.Fprintf(sb, "- Seating Capacity: %s\n", car.SeatingCapacity)
	fmt.Fprintf(sb, "- Price: %s\n", car.Price)
}
