package plugin

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// Factory constructs a fresh plugin instance. Each build loads its own
// instances so plugin state never leaks across runs.
type Factory func() Plugin

// Spec names one plugin to load and carries its configured options.
type Spec struct {
	Name    string
	Options map[string]any
}

// Loaded is the result of loading one plugin.
type Loaded struct {
	Plugin Plugin
	Hooks  int
}

// Loader resolves configured plugin specs against a catalog of factories,
// validates their options, and binds their hooks to the registry.
type Loader struct {
	catalog  map[string]Factory
	validate *validator.Validate
	log      *slog.Logger
}

// NewLoader creates a loader over the given catalog.
func NewLoader(catalog map[string]Factory, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		catalog:  catalog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Load instantiates, configures, initializes, and binds every spec in order.
// Spec order is plugin load order: it determines hook dispatch order for the
// whole build.
//
// The first failure aborts the load; plugin loading is all-or-nothing.
func (l *Loader) Load(reg *lifecycle.Registry, specs []Spec) ([]Loaded, error) {
	seen := make(map[string]struct{}, len(specs))
	loaded := make([]Loaded, 0, len(specs))

	for _, spec := range specs {
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("plugin %s listed twice", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		factory, ok := l.catalog[spec.Name]
		if !ok {
			return nil, &UnknownPluginError{Name: spec.Name}
		}

		p := factory()
		meta := p.Metadata()
		if err := meta.Validate(); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", spec.Name, err)
		}
		if meta.Name != spec.Name {
			return nil, fmt.Errorf("catalog entry %q produced plugin named %q", spec.Name, meta.Name)
		}

		if err := l.applyOptions(p, spec.Options); err != nil {
			return nil, err
		}

		if init, ok := p.(Initializer); ok {
			if err := init.Init(); err != nil {
				return nil, fmt.Errorf("plugin %s init: %w", spec.Name, err)
			}
		}

		hooks, err := Bind(reg, p)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", spec.Name, err)
		}

		l.log.Debug("Plugin loaded",
			logfields.Plugin(meta.Name),
			logfields.Count(hooks))

		loaded = append(loaded, Loaded{Plugin: p, Hooks: hooks})
	}

	return loaded, nil
}

// applyOptions decodes configured options into the plugin's declared schema
// and validates them. Plugins without a schema must not be given options.
func (l *Loader) applyOptions(p Plugin, options map[string]any) error {
	name := p.Metadata().Name

	schemer, ok := p.(OptionsSchemer)
	if !ok {
		if len(options) > 0 {
			return &OptionsError{Plugin: name, Err: fmt.Errorf("plugin accepts no options")}
		}
		return nil
	}

	prototype := schemer.PluginOptionsSchema()
	if prototype == nil {
		if len(options) > 0 {
			return &OptionsError{Plugin: name, Err: fmt.Errorf("plugin accepts no options")}
		}
		return nil
	}

	// YAML round-trip: configured options arrive as a generic map; encoding
	// and decoding them against the prototype applies the yaml tags and
	// surfaces unknown-field and type errors.
	raw, err := yaml.Marshal(options)
	if err != nil {
		return &OptionsError{Plugin: name, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(prototype); err != nil && len(options) > 0 {
		return &OptionsError{Plugin: name, Err: err}
	}

	if err := l.validate.Struct(prototype); err != nil {
		return &OptionsError{Plugin: name, Err: err}
	}
	return nil
}
