// Package pages holds the page store the page-creation hooks write into.
package pages

import (
	"fmt"
	"strings"
	"time"
)

// Page is a renderable page of the site.
type Page struct {
	// Path is the site-relative URL path (e.g. "/docs/getting-started/").
	// Paths are unique; a later createPage for the same path replaces the
	// earlier page.
	Path string

	// Component names the template that renders the page.
	Component string

	// Context carries data the component receives at render time
	// (typically a node ID).
	Context map[string]any

	// Owner is the plugin that created the page.
	Owner string

	CreatedAt time.Time

	// Stateful marks pages managed imperatively via createPagesStatefully.
	// They survive declarative resets and are added/removed only by their
	// owner.
	Stateful bool
}

// Validate checks structural invariants before the page enters the store.
func (p *Page) Validate() error {
	if p.Path == "" {
		return fmt.Errorf("page path is required")
	}
	if !strings.HasPrefix(p.Path, "/") {
		return fmt.Errorf("page path must start with /: %s", p.Path)
	}
	if p.Component == "" {
		return fmt.Errorf("page component is required")
	}
	if p.Owner == "" {
		return fmt.Errorf("page owner is required")
	}
	return nil
}

// NormalizePath ensures a trailing slash so output paths map to
// <path>/index.html consistently.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
