package lifecycle

import (
	"git.home.luguber.info/inful/sitewright/internal/action"
)

// Descriptor describes one entry of the fixed hook contract table: when the
// host invokes the hook, what it passes, what the implementation may return,
// and which action channels it may use.
type Descriptor struct {
	Name        HookName
	Phase       Phase
	Cardinality Cardinality

	// Inputs documents the fields the host passes to implementations.
	Inputs []string

	// Returns documents what an implementation may return.
	Returns string

	// Actions is the allowlist of side-effect channels implementations of
	// this hook may invoke. Empty means the hook is side-effect-free.
	Actions []action.Kind

	// Signature is a zero function value of the expected implementation
	// type; the registry validates registrations against it.
	Signature any

	// Doc is the invocation documentation rendered by `sitewright hooks docs`.
	Doc string
}

// descriptors is the fixed contract table, in documentation order. Hook
// names are globally unique; the table is never mutated at runtime.
var descriptors = []Descriptor{
	{
		Name:        HookResolvableExtensions,
		Phase:       PhaseConfig,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"site", "buildCfg", "log"},
		Returns:     "extensions list",
		Actions:     []action.Kind{action.KindRegisterExtensions},
		Signature:   ExtensionsFunc(nil),
		Doc: "Declare extra file extensions the toolchain should resolve as source " +
			"files, beyond the base .js/.jsx/.json set. Return the extensions (with " +
			"leading dot) or register them through the action channel; a TypeScript " +
			"plugin would add .ts and .tsx here.",
	},
	{
		Name:        HookCreatePages,
		Phase:       PhasePageCreation,
		Cardinality: CalledRepeatedlyOnChange,
		Inputs:      []string{"actions", "nodes", "schema", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindCreatePage, action.KindDeletePage},
		Signature:   HookFunc(nil),
		Doc: "Declaratively (re)create pages from the data layer. Called after the " +
			"schema phase, and again whenever sourced data changes in watch mode: " +
			"derive every page from queried nodes so a re-run converges on the same " +
			"page set. Pages created here are tracked; stale ones are reset before " +
			"each run.",
	},
	{
		Name:        HookCreatePagesStatefully,
		Phase:       PhasePageCreation,
		Cardinality: CalledRepeatedlyOnChange,
		Inputs:      []string{"actions", "nodes", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindCreatePage, action.KindDeletePage},
		Signature:   HookFunc(nil),
		Doc: "Imperatively manage pages whose lifetime is not tied to tracked data. " +
			"Pages created here survive declarative resets; the owning plugin is " +
			"responsible for adding and removing them itself.",
	},
	{
		Name:        HookSourceNodes,
		Phase:       PhaseSource,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"actions", "site", "workspaceDir", "log"},
		Returns:     "error",
		Actions: []action.Kind{
			action.KindCreateNode, action.KindDeleteNode,
			action.KindCreateNodeField, action.KindCreateParentChildLink,
		},
		Signature: HookFunc(nil),
		Doc: "Create data nodes from an external source (filesystem, git " +
			"repository, remote API). Called once per plugin at the start of the " +
			"source phase; every unit of data a site can build from enters the data " +
			"layer here.",
	},
	{
		Name:        HookOnCreateNode,
		Phase:       PhaseSource,
		Cardinality: CalledPerNode,
		Inputs:      []string{"node", "actions", "log"},
		Returns:     "error",
		Actions: []action.Kind{
			action.KindCreateNode, action.KindDeleteNode,
			action.KindCreateNodeField, action.KindCreateParentChildLink,
		},
		Signature: NodeFunc(nil),
		Doc: "Transform or react to a newly created node. Transformer plugins " +
			"derive richer child nodes here (a markdown file node becomes a parsed " +
			"page node) and link them with createParentChildLink. Runs for every " +
			"node unless the plugin's shouldOnCreateNode declines it.",
	},
	{
		Name:        HookShouldOnCreateNode,
		Phase:       PhaseSource,
		Cardinality: CalledPerNode,
		Inputs:      []string{"node"},
		Returns:     "bool",
		Actions:     nil,
		Signature:   NodePredicate(nil),
		Doc: "Cheap synchronous prefilter deciding whether onCreateNode should be " +
			"scheduled for a node. Must be fast and side-effect-free; typically a " +
			"media-type check. Without it, onCreateNode runs for every node.",
	},
	{
		Name:        HookOnCreatePage,
		Phase:       PhasePageCreation,
		Cardinality: CalledPerNode,
		Inputs:      []string{"page", "actions", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindCreatePage, action.KindDeletePage},
		Signature:   PageFunc(nil),
		Doc: "Post-process a page created by another plugin: rewrite its path, " +
			"enrich its context, or replace it. Fired once for each page right " +
			"after its creation; replacing the page through createPage does not " +
			"re-fire the hook for the replacement.",
	},
	{
		Name:        HookSetFieldsOnGraphQLNodeType,
		Phase:       PhaseSchema,
		Cardinality: CalledPerType,
		Inputs:      []string{"type", "fields", "nodes", "log"},
		Returns:     "field definitions",
		Actions:     nil,
		Signature:   TypeFieldsFunc(nil),
		Doc: "Add fields to a type the host inferred from observed node shapes. " +
			"Called once per inferred node type after inference; return the extra " +
			"field definitions for that type, or nil to leave it untouched.",
	},
	{
		Name:        HookCreateSchemaCustomization,
		Phase:       PhaseSchema,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"actions", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindCreateTypes, action.KindCreateFieldExtension},
		Signature:   HookFunc(nil),
		Doc: "Define explicit types and reusable field extensions before the " +
			"schema is assembled. Explicit definitions take precedence over " +
			"inference and keep the schema stable when source data is incomplete.",
	},
	{
		Name:        HookCreateResolvers,
		Phase:       PhaseSchema,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"actions", "schema", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindCreateResolverBinding},
		Signature:   HookFunc(nil),
		Doc: "Attach custom resolvers to schema fields. This is the last " +
			"schema-build step: inference and explicit customization are complete, " +
			"so resolvers may reference any type the schema ends up with.",
	},
	{
		Name:        HookPreprocessSource,
		Phase:       PhaseSource,
		Cardinality: CalledPerNode,
		Inputs:      []string{"path", "contents", "actions"},
		Returns:     "transformed source",
		Actions:     []action.Kind{action.KindReplaceSource},
		Signature:   PreprocessFunc(nil),
		Doc: "Compile a non-JS source file to JS before query extraction, so the " +
			"extractor only ever parses JavaScript. Called per resolvable source " +
			"file; return nil to pass, or the compiled source. The first non-nil " +
			"result across plugins wins.",
	},
	{
		Name:        HookGenerateSideEffects,
		Phase:       PhaseBuild,
		Cardinality: CalledRepeatedlyOnChange,
		Inputs:      []string{"actions", "nodes", "pages", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindTriggerSideEffect},
		Signature:   HookFunc(nil),
		Doc: "Trigger expensive side effects demanded by the built pages, such as " +
			"image resizing or card generation. Runs after page creation; record " +
			"each effect through triggerSideEffect so the host can schedule, " +
			"deduplicate, and report them.",
	},
	{
		Name:        HookOnCreateBabelConfig,
		Phase:       PhaseConfig,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"stage", "actions", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindSetBabelPreset},
		Signature:   HookFunc(nil),
		Doc: "Mutate the Babel configuration for a toolchain stage. Called once " +
			"per plugin per stage; add presets and plugins through setBabelPreset. " +
			"Later-loaded plugins observe earlier entries.",
	},
	{
		Name:        HookOnCreateWebpackConfig,
		Phase:       PhaseConfig,
		Cardinality: CalledOncePerPlugin,
		Inputs:      []string{"stage", "actions", "buildCfg", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindSetWebpackConfig, action.KindRegisterExtensions},
		Signature:   HookFunc(nil),
		Doc: "Mutate the bundler configuration for a toolchain stage. Fragments " +
			"passed to setWebpackConfig are shallow-merged in plugin load order, so " +
			"later plugins win per key and can extend nested sections left by " +
			"earlier ones.",
	},
	{
		Name:        HookOnPreInit,
		Phase:       PhaseLifecycle,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc: "The first hook of a run, before any other work. Use it for cheap " +
			"environment checks; the data layer and stores are empty at this point.",
	},
	{
		Name:        HookOnPreBootstrap,
		Phase:       PhaseLifecycle,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "workspaceDir", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc: "Runs after initialization, before the bootstrap (config, source and " +
			"schema phases) begins. The workspace exists; the data layer is still " +
			"empty.",
	},
	{
		Name:        HookOnPostBootstrap,
		Phase:       PhaseLifecycle,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "nodes", "schema", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc: "Runs when the bootstrap completes: sourcing is done and the schema " +
			"is assembled. A good point to validate that expected data arrived.",
	},
	{
		Name:        HookOnPreBuild,
		Phase:       PhaseLifecycle,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc:         "Runs after bootstrap, immediately before the build steps start.",
	},
	{
		Name:        HookOnPostBuild,
		Phase:       PhaseLifecycle,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "pages", "outputDir", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc: "The last hook of a build, after all build steps including output " +
			"verification. The output directory holds the finished site; deploy " +
			"notifications belong here.",
	},
	{
		Name:        HookOnPreExtractQueries,
		Phase:       PhaseBuild,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"site", "nodes", "log"},
		Returns:     "error",
		Actions:     nil,
		Signature:   HookFunc(nil),
		Doc: "Runs before query and fragment extraction from source files. " +
			"Plugins that write generated source consumed by extraction emit it " +
			"here so it is in place before the extractor scans.",
	},
	{
		Name:        HookOnCreateDevServer,
		Phase:       PhaseDev,
		Cardinality: CalledOncePerRun,
		Inputs:      []string{"mux", "actions", "site", "log"},
		Returns:     "error",
		Actions:     []action.Kind{action.KindSetDevMiddleware},
		Signature:   DevServerFunc(nil),
		Doc: "Runs when the development server starts, never during one-shot " +
			"builds. Attach middleware or extra endpoints through setDevMiddleware; " +
			"handlers stay mounted for the server's lifetime.",
	},
	{
		Name:        HookPluginOptionsSchema,
		Phase:       PhaseConfig,
		Cardinality: CalledOncePerPlugin,
		Inputs:      nil,
		Returns:     "options schema",
		Actions:     nil,
		Signature:   OptionsSchemaFunc(nil),
		Doc: "Declare the schema of the plugin's own options: return a struct " +
			"pointer with yaml and validate tags. The loader decodes the configured " +
			"options into it and validates before any other hook runs, so invalid " +
			"options fail the build early with a precise error.",
	},
}

// descriptorIndex maps hook names to their table position.
var descriptorIndex = func() map[HookName]int {
	idx := make(map[HookName]int, len(descriptors))
	for i, d := range descriptors {
		idx[d.Name] = i
	}
	return idx
}()

// Describe returns the descriptor for a hook name.
func Describe(name HookName) (Descriptor, bool) {
	i, ok := descriptorIndex[name]
	if !ok {
		return Descriptor{}, false
	}
	return descriptors[i], true
}

// IsKnown reports whether name is in the contract table.
func IsKnown(name HookName) bool {
	_, ok := descriptorIndex[name]
	return ok
}

// Descriptors returns the full table in stable declaration order.
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), descriptors...)
}

// Names returns all hook names in table order.
func Names() []HookName {
	out := make([]HookName, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Name
	}
	return out
}
