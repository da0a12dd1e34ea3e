// Package lifecycle defines the plugin hook contract: the fixed table of
// named extension points, the registry that validates and stores plugin
// implementations, and the dispatcher that invokes them in load order.
package lifecycle

// HookName identifies an extension point a plugin may implement.
//
// These names are the wire contract: configuration, documentation, and the
// journal all refer to hooks by these exact strings.
type HookName string

const (
	HookResolvableExtensions       HookName = "resolvableExtensions"
	HookCreatePages                HookName = "createPages"
	HookCreatePagesStatefully      HookName = "createPagesStatefully"
	HookSourceNodes                HookName = "sourceNodes"
	HookOnCreateNode               HookName = "onCreateNode"
	HookShouldOnCreateNode         HookName = "shouldOnCreateNode"
	HookOnCreatePage               HookName = "onCreatePage"
	HookSetFieldsOnGraphQLNodeType HookName = "setFieldsOnGraphQLNodeType"
	HookCreateSchemaCustomization  HookName = "createSchemaCustomization"
	HookCreateResolvers            HookName = "createResolvers"
	HookPreprocessSource           HookName = "preprocessSource"
	HookGenerateSideEffects        HookName = "generateSideEffects"
	HookOnCreateBabelConfig        HookName = "onCreateBabelConfig"
	HookOnCreateWebpackConfig      HookName = "onCreateWebpackConfig"
	HookOnPreInit                  HookName = "onPreInit"
	HookOnPreBootstrap             HookName = "onPreBootstrap"
	HookOnPostBootstrap            HookName = "onPostBootstrap"
	HookOnPreBuild                 HookName = "onPreBuild"
	HookOnPostBuild                HookName = "onPostBuild"
	HookOnPreExtractQueries        HookName = "onPreExtractQueries"
	HookOnCreateDevServer          HookName = "onCreateDevServer"
	HookPluginOptionsSchema        HookName = "pluginOptionsSchema"
)

// String returns the hook name as a string.
func (h HookName) String() string { return string(h) }

// Phase is a named stage in the host build lifecycle.
type Phase string

const (
	PhaseConfig       Phase = "config"
	PhaseLifecycle    Phase = "lifecycle"
	PhaseSource       Phase = "source"
	PhaseSchema       Phase = "schema"
	PhasePageCreation Phase = "page-creation"
	PhaseBuild        Phase = "build"
	PhaseDev          Phase = "dev"
)

// Cardinality describes how often the host invokes a hook.
type Cardinality string

const (
	// CalledOncePerRun hooks run exactly once per build.
	CalledOncePerRun Cardinality = "once-per-run"
	// CalledOncePerPlugin hooks run once for each plugin implementing them.
	CalledOncePerPlugin Cardinality = "once-per-plugin"
	// CalledRepeatedlyOnChange hooks re-fire whenever tracked data changes
	// (watch mode re-runs the lifecycle).
	CalledRepeatedlyOnChange Cardinality = "repeated-on-change"
	// CalledPerNode hooks run for every node entering the data layer.
	CalledPerNode Cardinality = "per-node"
	// CalledPerType hooks run once for every inferred node type.
	CalledPerType Cardinality = "per-type"
)
