package session

import "strings"

// DescriptionBudget is the rune budget for a record's descriptive text.
const DescriptionBudget = 500

// Truncate shortens s to at most budget runes, appending an ellipsis
// marker when it cuts. Cuts land on whole-rune boundaries so multibyte
// sequences never split.
func Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return strings.TrimSpace(string(runes[:budget])) + "..."
}
