package build

import (
	"log/slog"

	"git.home.luguber.info/inful/sitewright/internal/action"
	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/config"
	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/metrics"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// State carries everything one lifecycle run mutates: the hook registry,
// the data layer, and the report. A State is built fresh per run; in watch
// mode the dev server keeps it alive across rebuilds for dev-server hooks.
type State struct {
	BuildID string
	Config  *config.Config

	Registry   *lifecycle.Registry
	Dispatcher *lifecycle.Dispatcher
	Catalog    map[string]plugin.Factory
	Plugins    []plugin.Loaded

	Nodes       *nodes.Store
	Pages       *pages.Store
	Schema      *schema.Store
	BuildCfg    *buildcfg.Config
	SideEffects *action.SideEffectLog

	Report *Report

	Journal  eventstore.Store
	Recorder metrics.Recorder
	Log      *slog.Logger

	WorkspaceDir string
	OutputDir    string
}

// setScope tunes the action set handed to one hook invocation.
type setScope struct {
	statefulPages bool
	nodeID        string
	middleware    action.MiddlewareSink
}

// actionSet builds the per-invocation action surface, scoped to the plugin
// and the hook's allowlist from the contract table.
func (st *State) actionSet(owner string, hook lifecycle.HookName, scope setScope) *action.Set {
	var allowed []action.Kind
	if desc, ok := lifecycle.Describe(hook); ok {
		allowed = desc.Actions
	}
	return action.NewSet(
		action.Scope{
			Owner:         owner,
			Hook:          string(hook),
			Allowed:       allowed,
			StatefulPages: scope.statefulPages,
			NodeID:        scope.nodeID,
		},
		action.Sinks{
			Nodes:       st.Nodes,
			Pages:       st.Pages,
			Schema:      st.Schema,
			BuildCfg:    st.BuildCfg,
			Middleware:  scope.middleware,
			SideEffects: st.SideEffects,
			BuildID:     st.BuildID,
			Journal:     st.Journal,
			Recorder:    st.Recorder,
			Log:         st.Log,
		},
	)
}

// args builds the common hook input for one invocation.
func (st *State) args(set *action.Set) *lifecycle.Args {
	return &lifecycle.Args{
		BuildID: st.BuildID,
		Site: lifecycle.SiteInfo{
			Title:       st.Config.Site.Title,
			BaseURL:     st.Config.Site.BaseURL,
			Description: st.Config.Site.Description,
		},
		Log:          st.Log,
		Actions:      set,
		Nodes:        st.Nodes,
		Pages:        st.Pages,
		Schema:       st.Schema,
		BuildCfg:     st.BuildCfg,
		WorkspaceDir: st.WorkspaceDir,
		OutputDir:    st.OutputDir,
	}
}

// hookArgs is the common case: a scoped action set and plain Args.
func (st *State) hookArgs(owner string, hook lifecycle.HookName) (*lifecycle.Args, *action.Set) {
	set := st.actionSet(owner, hook, setScope{})
	return st.args(set), set
}
