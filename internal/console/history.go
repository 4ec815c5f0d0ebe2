package console

import "strings"

// History is an in-memory input history, oldest first.
type History struct {
	entries []string
}

// Add appends line unless it is blank or repeats the last entry.
func (h *History) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns entry i, oldest first.
func (h *History) At(i int) string {
	return h.entries[i]
}

// Newest returns distinct entries, newest first.
func (h *History) Newest() []string {
	seen := make(map[string]bool, len(h.entries))
	out := make([]string, 0, len(h.entries))
	for i := len(h.entries) - 1; i >= 0; i-- {
		if e := h.entries[i]; !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// Suggest returns the newest entry that extends prefix, or "" when there
// is none. Matching is case-sensitive so accepting a suggestion never
// rewrites what was already typed.
func (h *History) Suggest(prefix string) string {
	if prefix == "" {
		return ""
	}
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if len(e) > len(prefix) && strings.HasPrefix(e, prefix) {
			return e
		}
	}
	return ""
}
