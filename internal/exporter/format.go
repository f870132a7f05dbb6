package exporter

import (
	"fmt"
	"strings"
)

// formatFloat formats a float64 for CSV output with up to six decimal
// places, trailing zeros trimmed. Prices here are on the normalized scale,
// so fixed two-decimal currency formatting would lose the signal.
func formatFloat(f float64) string {
	s := fmt.Sprintf("%.6f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
