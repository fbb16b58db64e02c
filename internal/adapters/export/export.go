// Package export renders final cutlists in the editor exchange formats:
// Timebolt segment lists and Automation Blocks label sheets
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase renders an event key as a display name ("lt. surge" becomes
// "Lt. Surge"). Casers carry state, so each call builds its own
func titleCase(key string) string {
	return cases.Title(language.English).String(key)
}

// round4 matches the exporter precision of the label sheet
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
