package adapters

import "strings"

// TextAdapter is the fallback adapter for plain-text letters
type TextAdapter struct {
	BaseAdapter
}

// NewTextAdapter creates a new plain-text adapter
func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

// Name returns the adapter name
func (a *TextAdapter) Name() string {
	return "text"
}

// CanHandle accepts the plain-text format names
func (a *TextAdapter) CanHandle(format string, content string) bool {
	switch format {
	case "", "text", "txt", "plain", "text/plain":
		return true
	}
	return false
}

// Normalize unifies line endings; offsets otherwise match the input
func (a *TextAdapter) Normalize(content string) (string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n"), nil
}
