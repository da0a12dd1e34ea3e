package config

import "git.home.luguber.info/inful/sitewright/internal/plugin"

// PluginSpecs converts the configured plugin list into loader specs,
// preserving order.
func (c *Config) PluginSpecs() []plugin.Spec {
	specs := make([]plugin.Spec, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		specs = append(specs, plugin.Spec{Name: p.Name, Options: p.Options})
	}
	return specs
}
