package lifecycle

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/sitewright/internal/action"
	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// SiteInfo is the site identity passed to hook implementations.
type SiteInfo struct {
	Title       string
	BaseURL     string
	Description string
}

// Args is the common input every hook implementation receives: identity,
// read access to the data layer, and the scoped action set — the only way a
// hook may affect host state.
type Args struct {
	BuildID string
	Site    SiteInfo
	Log     *slog.Logger

	// Actions is scoped to the invoking plugin and the hook's allowlist.
	Actions *action.Set

	// Read-only views. Mutations go through Actions.
	Nodes    *nodes.Store
	Pages    *pages.Store
	Schema   *schema.Store
	BuildCfg *buildcfg.Config

	// Stage is set for the per-stage config hooks (onCreateBabelConfig,
	// onCreateWebpackConfig).
	Stage buildcfg.Stage

	// WorkspaceDir is the per-build scratch directory.
	WorkspaceDir string

	// OutputDir is where the site is written.
	OutputDir string
}

// NodeArgs is the input for per-node hooks.
type NodeArgs struct {
	*Args
	Node nodes.Node
}

// PageArgs is the input for onCreatePage.
type PageArgs struct {
	*Args
	Page pages.Page
}

// TypeArgs is the input for setFieldsOnGraphQLNodeType: one inferred node
// type and its observed field shape.
type TypeArgs struct {
	*Args
	Type   string
	Fields map[string]schema.FieldDef
}

// SourceArgs is the input for preprocessSource: one resolvable source file.
type SourceArgs struct {
	*Args
	Path     string
	Contents []byte
}

// DevServerArgs is the input for onCreateDevServer.
type DevServerArgs struct {
	*Args
	Mux *http.ServeMux
}

// Hook implementation signatures. The registry validates registered
// implementations against these types; the Descriptor table binds each hook
// name to one of them.
type (
	// HookFunc is the common shape: lifecycle notifications, sourceNodes,
	// page creation, schema customization, config mutation.
	HookFunc func(ctx context.Context, a *Args) error

	// ExtensionsFunc returns extra resolvable file extensions.
	ExtensionsFunc func(ctx context.Context, a *Args) ([]string, error)

	// NodeFunc reacts to a newly created node.
	NodeFunc func(ctx context.Context, a *NodeArgs) error

	// NodePredicate is the cheap prefilter deciding whether onCreateNode
	// should be scheduled for a node. It must not touch host state.
	NodePredicate func(a *NodeArgs) bool

	// PageFunc post-processes a page created by another plugin.
	PageFunc func(ctx context.Context, a *PageArgs) error

	// TypeFieldsFunc returns fields to add to one inferred node type.
	TypeFieldsFunc func(ctx context.Context, a *TypeArgs) (map[string]schema.FieldDef, error)

	// PreprocessFunc optionally compiles a source file to JS before query
	// extraction. A nil result leaves the source untouched; the first
	// non-nil result across plugins wins.
	PreprocessFunc func(ctx context.Context, a *SourceArgs) ([]byte, error)

	// DevServerFunc runs on dev server start and may attach middleware.
	DevServerFunc func(ctx context.Context, a *DevServerArgs) error

	// OptionsSchemaFunc returns the plugin's options prototype: a struct
	// pointer with yaml and validate tags the loader decodes options into.
	OptionsSchemaFunc func() any
)
