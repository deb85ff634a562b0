// Package adapters normalizes letter bodies in different formats into plain text.
package adapters

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrUnsupportedFormat is returned for a letter format no adapter accepts
var ErrUnsupportedFormat = errors.New("unsupported letter format")

// Adapter defines the interface for letter format normalizers
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given format/content
	CanHandle(format string, content string) bool

	// Normalize converts the letter body into the plain text that is analysed
	Normalize(content string) (string, error)
}

// Registry manages format adapters
type Registry struct {
	adapters []Adapter
	text     Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	// Register built-in adapters
	registry.Register(NewHTMLAdapter())

	// Set text adapter as fallback
	registry.text = NewTextAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given format. An empty format lets
// adapters sniff the content; an unknown format is an error.
func (r *Registry) FindAdapter(format string, content string) (Adapter, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	for _, adapter := range r.adapters {
		if adapter.CanHandle(format, content) {
			return adapter, nil
		}
	}

	if format == "" || r.text.CanHandle(format, content) {
		return r.text, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Normalize finds the adapter for format and normalizes content with it
func (r *Registry) Normalize(format string, content string) (string, error) {
	adapter, err := r.FindAdapter(format, content)
	if err != nil {
		return "", err
	}
	text, err := adapter.Normalize(content)
	if err != nil {
		return "", fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}
	return text, nil
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// ParseHTML parses HTML string into a node tree
func (b *BaseAdapter) ParseHTML(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// HasAttribute reports whether a node carries an attribute, whatever its value
func (b *BaseAdapter) HasAttribute(n *html.Node, attrKey string) bool {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return true
		}
	}
	return false
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}
