package comparison

import (
	"fmt"
	"strings"

	"showroom-workers/internal/models"
)

const (
	// TimeoutNotice is returned when polling gives up without cars to fall back on.
	TimeoutNotice = "The comparison is taking longer than expected. Please try again later."

	fallbackFooter = "This is a fallback comparison generated because the AI comparison service is currently unavailable. Please try again later for a more detailed AI-powered comparison."
)

// FallbackReport renders the offline comparison used when the assistant never
// answers. It is a pure function of its inputs.
func FallbackReport(a, b models.Car) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Comparison between %s and %s\n\n", a.Name, b.Name)
	sb.WriteString("## Specifications\n\n")

	fmt.Fprintf(&sb, "### %s\n", a.Name)
	writeSpecBullets(&sb, a)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "### %s\n", b.Name)
	writeSpecBullets(&sb, b)
	sb.WriteString("\n")

	sb.WriteString("## Key Differences\n")
	fmt.Fprintf(&sb, "- Engine: %s vs %s\n", a.Engine, b.Engine)
	fmt.Fprintf(&sb, "- Power: %s vs %s\n", a.Power, b.Power)
	fmt.Fprintf(&sb, "- Price: %s vs %s\n", a.Price, b.Price)
	sb.WriteString("\n")
	sb.WriteString(fallbackFooter)
	return sb.String()
}
