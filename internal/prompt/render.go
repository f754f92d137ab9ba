// Package prompt renders the final prompt text from the per-item selections.
package prompt

import (
	"fmt"
	"strings"
)

// NoSelection is the reserved choice meaning "no choice picked". It is always
// present as the first choice of every item and is excluded from rendering.
const NoSelection = "指定なし"

// Entry is one labeled row of the prompt: the picked choice plus any
// confirmed free text.
type Entry struct {
	Label    string
	Selected string
	FreeText string
}

// Render builds the prompt string. Confirmed free text wins over the selected
// choice; rows with no effective value are skipped entirely.
func Render(entries []Entry) string {
	var parts []string
	for _, e := range entries {
		value := strings.TrimSpace(e.FreeText)
		if value == "" {
			value = strings.TrimSpace(e.Selected)
		}
		if value == "" || value == NoSelection {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]：%s", e.Label, value))
	}
	return strings.Join(parts, "\n")
}
