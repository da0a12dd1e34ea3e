// Package plugins assembles the builtin plugin catalog.
package plugins

import (
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/plugins/filesystem"
	"git.home.luguber.info/inful/sitewright/internal/plugins/gitsource"
	"git.home.luguber.info/inful/sitewright/internal/plugins/markdown"
)

// Catalog returns the builtin plugin factories keyed by plugin name.
func Catalog() map[string]plugin.Factory {
	return map[string]plugin.Factory{
		filesystem.Name: filesystem.New,
		gitsource.Name:  gitsource.New,
		markdown.Name:   markdown.New,
	}
}
