package value

import "fmt"

// formatNumber renders a float64 the way spec.md §6 requires: "g" format,
// the same way fmt.Sprintf("%g", ...) renders it. Division by zero is never
// trapped: it silently produces IEEE infinity or NaN, which format exactly
// like any other number.
func formatNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}
