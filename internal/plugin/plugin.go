// Package plugin defines what a SiteWright plugin is: identity metadata plus
// any subset of the hook capability interfaces. Binding a plugin registers
// each implemented capability with the lifecycle registry.
package plugin

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// Metadata describes a plugin's identity.
type Metadata struct {
	// Name is the unique plugin identifier (e.g., "source-filesystem").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Author is the plugin creator or maintainer.
	Author string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	return nil
}

// Plugin is the minimal contract: identity. Everything else a plugin can do
// is declared by implementing capability interfaces.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata
}

// Initializer is implemented by plugins that need setup when loaded,
// before any hook runs.
type Initializer interface {
	Init() error
}

// Cleaner is implemented by plugins that hold resources needing release
// when the host shuts down.
type Cleaner interface {
	Cleanup() error
}

// Capability interfaces. Each corresponds to one extension point; a plugin
// implements the ones it needs and Bind registers them. Method shapes match
// the registry's expected signatures exactly.
type (
	// ExtensionsResolver declares extra resolvable source file extensions.
	ExtensionsResolver interface {
		ResolvableExtensions(ctx context.Context, a *lifecycle.Args) ([]string, error)
	}

	// PageCreator declaratively creates pages from the data layer.
	PageCreator interface {
		CreatePages(ctx context.Context, a *lifecycle.Args) error
	}

	// StatefulPageCreator imperatively manages pages that survive
	// declarative resets.
	StatefulPageCreator interface {
		CreatePagesStatefully(ctx context.Context, a *lifecycle.Args) error
	}

	// NodeSourcer creates data nodes from an external source.
	NodeSourcer interface {
		SourceNodes(ctx context.Context, a *lifecycle.Args) error
	}

	// NodeObserver transforms or reacts to newly created nodes.
	NodeObserver interface {
		OnCreateNode(ctx context.Context, a *lifecycle.NodeArgs) error
	}

	// NodeFilter prefilters which nodes reach the plugin's OnCreateNode.
	NodeFilter interface {
		ShouldOnCreateNode(a *lifecycle.NodeArgs) bool
	}

	// PageObserver post-processes pages created by other plugins.
	PageObserver interface {
		OnCreatePage(ctx context.Context, a *lifecycle.PageArgs) error
	}

	// TypeFieldProvider adds fields to inferred node types.
	TypeFieldProvider interface {
		SetFieldsOnGraphQLNodeType(ctx context.Context, a *lifecycle.TypeArgs) (map[string]schema.FieldDef, error)
	}

	// SchemaCustomizer defines explicit types and field extensions.
	SchemaCustomizer interface {
		CreateSchemaCustomization(ctx context.Context, a *lifecycle.Args) error
	}

	// ResolverProvider attaches custom resolvers to schema fields.
	ResolverProvider interface {
		CreateResolvers(ctx context.Context, a *lifecycle.Args) error
	}

	// SourcePreprocessor compiles non-JS source files before query
	// extraction.
	SourcePreprocessor interface {
		PreprocessSource(ctx context.Context, a *lifecycle.SourceArgs) ([]byte, error)
	}

	// SideEffectGenerator triggers expensive derived work after pages exist.
	SideEffectGenerator interface {
		GenerateSideEffects(ctx context.Context, a *lifecycle.Args) error
	}

	// BabelConfigurer mutates the per-stage Babel configuration.
	BabelConfigurer interface {
		OnCreateBabelConfig(ctx context.Context, a *lifecycle.Args) error
	}

	// WebpackConfigurer mutates the per-stage bundler configuration.
	WebpackConfigurer interface {
		OnCreateWebpackConfig(ctx context.Context, a *lifecycle.Args) error
	}

	// PreInitializer runs before any other work in a build.
	PreInitializer interface {
		OnPreInit(ctx context.Context, a *lifecycle.Args) error
	}

	// PreBootstrapper runs before the bootstrap phases begin.
	PreBootstrapper interface {
		OnPreBootstrap(ctx context.Context, a *lifecycle.Args) error
	}

	// PostBootstrapper runs when sourcing and schema assembly complete.
	PostBootstrapper interface {
		OnPostBootstrap(ctx context.Context, a *lifecycle.Args) error
	}

	// PreBuilder runs immediately before the build steps start.
	PreBuilder interface {
		OnPreBuild(ctx context.Context, a *lifecycle.Args) error
	}

	// PostBuilder runs after all build steps including verification.
	PostBuilder interface {
		OnPostBuild(ctx context.Context, a *lifecycle.Args) error
	}

	// PreQueryExtractor runs before query extraction scans source files.
	PreQueryExtractor interface {
		OnPreExtractQueries(ctx context.Context, a *lifecycle.Args) error
	}

	// DevServerConfigurer runs on dev server start and may attach
	// middleware.
	DevServerConfigurer interface {
		OnCreateDevServer(ctx context.Context, a *lifecycle.DevServerArgs) error
	}

	// OptionsSchemer declares the plugin's options prototype: a struct
	// pointer with yaml and validate tags. The loader decodes configured
	// options into the returned pointer, so plugins typically return a
	// field of their own struct and read it from hooks afterwards.
	OptionsSchemer interface {
		PluginOptionsSchema() any
	}
)
