package build

import (
	"context"

	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// runHook dispatches a structural hook whose implementations take plain Args.
func (st *State) runHook(ctx context.Context, hook lifecycle.HookName) error {
	return st.Dispatcher.Run(ctx, hook, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.HookFunc)
		a, _ := st.hookArgs(reg.Owner, hook)
		return fn(ctx, a)
	})
}

// notify dispatches a lifecycle notification hook: every plugin gets its
// turn, failures are joined afterwards.
func (st *State) notify(ctx context.Context, hook lifecycle.HookName) error {
	return st.Dispatcher.RunNotify(ctx, hook, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.HookFunc)
		a, _ := st.hookArgs(reg.Owner, hook)
		return fn(ctx, a)
	})
}

func stageLoadPlugins(ctx context.Context, st *State) error {
	loader := plugin.NewLoader(st.Catalog, st.Log)
	loaded, err := loader.Load(st.Registry, st.Config.PluginSpecs())
	if err != nil {
		return newFatalStageError(StageLoadPlugins, err)
	}
	st.Plugins = loaded
	st.Report.Plugins = len(loaded)
	if st.Recorder != nil {
		st.Recorder.SetPluginCount(len(loaded))
	}

	for _, l := range loaded {
		meta := l.Plugin.Metadata()
		if e, err := eventstore.NewPluginLoaded(st.BuildID, meta.Name, meta.Version, l.Hooks); err == nil {
			if err := eventstore.Record(ctx, st.Journal, e); err != nil {
				st.Log.Warn("Failed to journal plugin load", logfields.Error(err))
			}
		}
	}
	return nil
}

func stagePreInit(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPreInit)
}

func stagePreBootstrap(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPreBootstrap)
}

// stageConfig runs the toolchain-configuration hooks: resolvable extensions
// first, then the per-stage Babel and bundler config hooks. Later plugins
// observe the merges of earlier ones.
func stageConfig(ctx context.Context, st *State) error {
	err := st.Dispatcher.Run(ctx, lifecycle.HookResolvableExtensions, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.ExtensionsFunc)
		a, _ := st.hookArgs(reg.Owner, lifecycle.HookResolvableExtensions)
		exts, err := fn(ctx, a)
		if err != nil {
			return err
		}
		if len(exts) > 0 {
			return st.BuildCfg.RegisterExtensions(exts...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, hook := range []lifecycle.HookName{lifecycle.HookOnCreateBabelConfig, lifecycle.HookOnCreateWebpackConfig} {
		for _, stage := range buildcfg.Stages() {
			err := st.Dispatcher.Run(ctx, hook, func(ctx context.Context, reg lifecycle.Registration) error {
				fn := reg.Impl.(lifecycle.HookFunc)
				a, _ := st.hookArgs(reg.Owner, hook)
				a.Stage = stage
				return fn(ctx, a)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// stageSource populates the data layer: sourceNodes per plugin, then the
// per-node onCreateNode chain (children created there flow through the chain
// themselves), then preprocessSource over resolvable source files.
func stageSource(ctx context.Context, st *State) error {
	var queue []string
	err := st.Dispatcher.Run(ctx, lifecycle.HookSourceNodes, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.HookFunc)
		set := st.actionSet(reg.Owner, lifecycle.HookSourceNodes, setScope{})
		if err := fn(ctx, st.args(set)); err != nil {
			return err
		}
		queue = append(queue, set.CreatedNodes()...)
		return nil
	})
	if err != nil {
		return err
	}

	if err := st.runOnCreateNode(ctx, queue); err != nil {
		return err
	}
	st.Report.Nodes = st.Nodes.Len()

	return st.preprocessSources(ctx)
}

// runOnCreateNode drives the transformer chain breadth-first: every created
// node is offered to each onCreateNode implementation whose prefilter
// accepts it, and nodes created during those invocations join the queue.
func (st *State) runOnCreateNode(ctx context.Context, queue []string) error {
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		node, ok := st.Nodes.Get(id)
		if !ok {
			continue
		}

		err := st.Dispatcher.RunWhere(ctx, lifecycle.HookOnCreateNode,
			func(reg lifecycle.Registration) bool {
				return st.shouldOnCreateNode(reg.Owner, node)
			},
			func(ctx context.Context, reg lifecycle.Registration) error {
				fn := reg.Impl.(lifecycle.NodeFunc)
				set := st.actionSet(reg.Owner, lifecycle.HookOnCreateNode, setScope{})
				na := &lifecycle.NodeArgs{Args: st.args(set), Node: node}
				if err := fn(ctx, na); err != nil {
					return err
				}
				queue = append(queue, set.CreatedNodes()...)
				return nil
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// shouldOnCreateNode consults the owning plugin's prefilter. A plugin
// without one sees every node.
func (st *State) shouldOnCreateNode(owner string, node nodes.Node) bool {
	reg, ok := st.Registry.Implementation(owner, lifecycle.HookShouldOnCreateNode)
	if !ok {
		return true
	}
	pred, ok := reg.Impl.(lifecycle.NodePredicate)
	if !ok {
		return true
	}
	// The prefilter's action allowlist is empty; any attempted mutation fails.
	set := st.actionSet(owner, lifecycle.HookShouldOnCreateNode, setScope{})
	return pred(&lifecycle.NodeArgs{Args: st.args(set), Node: node})
}

// preprocessSources offers each resolvable source file to the registered
// preprocessors. The first non-nil result replaces the node's content;
// later preprocessors are skipped for that file.
func (st *State) preprocessSources(ctx context.Context) error {
	resolvable := make(map[string]bool)
	for _, ext := range st.BuildCfg.Extensions() {
		resolvable[ext] = true
	}

	for _, n := range st.Nodes.All() {
		if len(n.Content) == 0 || !resolvable[n.StringField("ext")] {
			continue
		}
		node := n
		replaced := false
		err := st.Dispatcher.Run(ctx, lifecycle.HookPreprocessSource, func(ctx context.Context, reg lifecycle.Registration) error {
			if replaced {
				return nil
			}
			fn := reg.Impl.(lifecycle.PreprocessFunc)
			set := st.actionSet(reg.Owner, lifecycle.HookPreprocessSource, setScope{nodeID: node.ID})
			sa := &lifecycle.SourceArgs{Args: st.args(set), Path: node.StringField("relativePath"), Contents: node.Content}
			out, err := fn(ctx, sa)
			if err != nil {
				return err
			}
			if out != nil {
				replaced = true
				return st.Nodes.SetContent(node.ID, out, nodes.Digest(out))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// stageSchema assembles the schema: explicit customization, host inference
// from the data layer, per-type field contributions, and resolvers last.
// The store is sealed afterwards.
func stageSchema(ctx context.Context, st *State) error {
	if err := st.runHook(ctx, lifecycle.HookCreateSchemaCustomization); err != nil {
		return err
	}

	for _, typ := range st.Nodes.Types() {
		if err := st.Schema.AddInferredFields(typ, inferFields(st.Nodes.ByType(typ))); err != nil {
			return err
		}
	}

	snap := st.Schema.Snapshot()
	for _, typ := range st.Nodes.Types() {
		typ := typ
		fields := snap.Inferred[typ]
		err := st.Dispatcher.Run(ctx, lifecycle.HookSetFieldsOnGraphQLNodeType, func(ctx context.Context, reg lifecycle.Registration) error {
			fn := reg.Impl.(lifecycle.TypeFieldsFunc)
			set := st.actionSet(reg.Owner, lifecycle.HookSetFieldsOnGraphQLNodeType, setScope{})
			ta := &lifecycle.TypeArgs{Args: st.args(set), Type: typ, Fields: fields}
			add, err := fn(ctx, ta)
			if err != nil {
				return err
			}
			if len(add) > 0 {
				return st.Schema.AddInferredFields(typ, add)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := st.runHook(ctx, lifecycle.HookCreateResolvers); err != nil {
		return err
	}
	st.Schema.Seal()
	return nil
}

// inferFields merges the observed field shapes of all nodes of one type.
// The first observed kind of a field wins.
func inferFields(ns []nodes.Node) map[string]schema.FieldDef {
	fields := make(map[string]schema.FieldDef)
	for _, n := range ns {
		for key, value := range n.Fields {
			if _, seen := fields[key]; seen {
				continue
			}
			fields[key] = schema.FieldDef{Kind: schema.InferValueKind(value)}
		}
	}
	return fields
}

func stagePostBootstrap(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPostBootstrap)
}

func stagePreBuild(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPreBuild)
}

func stageExtractQueries(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPreExtractQueries)
}

// stageCreatePages rebuilds the page set: declarative pages are reset so a
// rerun converges on the same set, stateful pages survive. onCreatePage
// fires for every page created here.
func stageCreatePages(ctx context.Context, st *State) error {
	st.Pages.Reset(true)

	err := st.Dispatcher.Run(ctx, lifecycle.HookCreatePages, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.HookFunc)
		set := st.actionSet(reg.Owner, lifecycle.HookCreatePages, setScope{})
		if err := fn(ctx, st.args(set)); err != nil {
			return err
		}
		return st.runOnCreatePage(ctx, set.CreatedPages())
	})
	if err != nil {
		return err
	}

	err = st.Dispatcher.Run(ctx, lifecycle.HookCreatePagesStatefully, func(ctx context.Context, reg lifecycle.Registration) error {
		fn := reg.Impl.(lifecycle.HookFunc)
		set := st.actionSet(reg.Owner, lifecycle.HookCreatePagesStatefully, setScope{statefulPages: true})
		if err := fn(ctx, st.args(set)); err != nil {
			return err
		}
		return st.runOnCreatePage(ctx, set.CreatedPages())
	})
	if err != nil {
		return err
	}

	st.Report.Pages = st.Pages.Len()
	return nil
}

// runOnCreatePage offers each freshly created page to the onCreatePage
// implementations. Pages created during onCreatePage do not retrigger it.
func (st *State) runOnCreatePage(ctx context.Context, created []pages.Page) error {
	for _, p := range created {
		page := p
		err := st.Dispatcher.Run(ctx, lifecycle.HookOnCreatePage, func(ctx context.Context, reg lifecycle.Registration) error {
			fn := reg.Impl.(lifecycle.PageFunc)
			set := st.actionSet(reg.Owner, lifecycle.HookOnCreatePage, setScope{})
			return fn(ctx, &lifecycle.PageArgs{Args: st.args(set), Page: page})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// stageSideEffects collects triggerSideEffect records. The host only logs
// them; executing the toolchain work they name is external.
func stageSideEffects(ctx context.Context, st *State) error {
	st.SideEffects.Reset()
	if err := st.runHook(ctx, lifecycle.HookGenerateSideEffects); err != nil {
		return err
	}
	for _, se := range st.SideEffects.All() {
		st.Log.Info("Side effect triggered",
			logfields.Plugin(se.Plugin),
			logfields.Name(se.Name))
	}
	return nil
}

func stagePostBuild(ctx context.Context, st *State) error {
	return st.notify(ctx, lifecycle.HookOnPostBuild)
}
