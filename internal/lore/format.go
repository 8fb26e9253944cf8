// internal/lore/format.go
package lore

import "strings"

// FormatEntries renders activated entries for context injection: payloads
// trimmed, empties dropped, joined by a blank line.
func FormatEntries(entries []*Entry) string {
	var parts []string
	for _, e := range entries {
		if c := strings.TrimSpace(e.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
