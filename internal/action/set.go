package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// actionAppliedEvent matches eventstore.EventActionApplied; duplicated here
// so the action layer stays free of the storage dependency.
const actionAppliedEvent = "action.applied"

// Journal receives an audit record of every applied action.
type Journal interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error
}

// Recorder counts applied actions. Satisfied by metrics.Recorder.
type Recorder interface {
	IncActionApplied(kind string)
}

// Scope identifies the hook invocation a Set belongs to and what it may do.
type Scope struct {
	Owner   string
	Hook    string
	Allowed []Kind

	// StatefulPages marks pages created through this set as imperatively
	// managed (createPagesStatefully).
	StatefulPages bool

	// NodeID is the node whose source is being preprocessed; target of
	// replaceSource.
	NodeID string
}

// Sinks are the backing stores a Set applies to, plus observability.
type Sinks struct {
	Nodes    *nodes.Store
	Pages    *pages.Store
	Schema   *schema.Store
	BuildCfg *buildcfg.Config

	// Middleware receives setDevMiddleware registrations (dev server only).
	Middleware MiddlewareSink

	// SideEffects receives triggerSideEffect records.
	SideEffects *SideEffectLog

	BuildID  string
	Journal  Journal
	Recorder Recorder
	Log      *slog.Logger
}

// Set is the per-invocation action surface handed to a hook implementation.
type Set struct {
	scope Scope
	sinks Sinks

	mu           sync.Mutex
	createdPages []pages.Page
	createdNodes []string
}

// NewSet creates an action set for one hook invocation.
func NewSet(scope Scope, sinks Sinks) *Set {
	if sinks.Log == nil {
		sinks.Log = slog.Default()
	}
	return &Set{scope: scope, sinks: sinks}
}

// Owner returns the plugin this set is scoped to.
func (s *Set) Owner() string { return s.scope.Owner }

// Hook returns the hook this set is scoped to.
func (s *Set) Hook() string { return s.scope.Hook }

// CreatedPages returns pages created through this set, in creation order.
// The build runner uses this to fire onCreatePage for each new page.
func (s *Set) CreatedPages() []pages.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pages.Page(nil), s.createdPages...)
}

// CreatedNodes returns IDs of nodes created through this set.
func (s *Set) CreatedNodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.createdNodes...)
}

func (s *Set) permitted(kind Kind) error {
	for _, k := range s.scope.Allowed {
		if k == kind {
			return nil
		}
	}
	return &NotPermittedError{Hook: s.scope.Hook, Action: kind}
}

// record journals and counts a successfully applied action.
func (s *Set) record(kind Kind, target string) {
	if s.sinks.Recorder != nil {
		s.sinks.Recorder.IncActionApplied(string(kind))
	}
	if s.sinks.Journal != nil {
		payload, err := json.Marshal(map[string]string{
			"action": string(kind),
			"plugin": s.scope.Owner,
			"hook":   s.scope.Hook,
			"target": target,
		})
		if err == nil {
			_ = s.sinks.Journal.Append(context.Background(), s.sinks.BuildID, actionAppliedEvent, payload, nil)
		}
	}
	s.sinks.Log.Debug("Action applied",
		logfields.Action(string(kind)),
		logfields.Plugin(s.scope.Owner),
		logfields.Hook(s.scope.Hook),
		logfields.Name(target))
}

// CreateNode adds a node to the data layer, stamped with the owning plugin.
func (s *Set) CreateNode(n nodes.Node) (string, error) {
	if err := s.permitted(KindCreateNode); err != nil {
		return "", err
	}
	n.Owner = s.scope.Owner
	id, err := s.sinks.Nodes.Create(n)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.createdNodes = append(s.createdNodes, id)
	s.mu.Unlock()

	s.record(KindCreateNode, id)
	return id, nil
}

// DeleteNode removes a node from the data layer.
func (s *Set) DeleteNode(id string) error {
	if err := s.permitted(KindDeleteNode); err != nil {
		return err
	}
	if err := s.sinks.Nodes.Delete(id); err != nil {
		return err
	}
	s.record(KindDeleteNode, id)
	return nil
}

// CreateNodeField sets a field on an existing node.
func (s *Set) CreateNodeField(id, key string, value any) error {
	if err := s.permitted(KindCreateNodeField); err != nil {
		return err
	}
	if err := s.sinks.Nodes.SetField(id, key, value); err != nil {
		return err
	}
	s.record(KindCreateNodeField, id+"."+key)
	return nil
}

// CreateParentChildLink links two existing nodes.
func (s *Set) CreateParentChildLink(parentID, childID string) error {
	if err := s.permitted(KindCreateParentChildLink); err != nil {
		return err
	}
	if err := s.sinks.Nodes.Link(parentID, childID); err != nil {
		return err
	}
	s.record(KindCreateParentChildLink, parentID+"->"+childID)
	return nil
}

// CreatePage upserts a page, stamped with the owning plugin.
func (s *Set) CreatePage(p pages.Page) (pages.Page, error) {
	if err := s.permitted(KindCreatePage); err != nil {
		return pages.Page{}, err
	}
	p.Owner = s.scope.Owner
	p.Stateful = s.scope.StatefulPages

	created, err := s.sinks.Pages.Upsert(p)
	if err != nil {
		return pages.Page{}, err
	}

	s.mu.Lock()
	s.createdPages = append(s.createdPages, created)
	s.mu.Unlock()

	s.record(KindCreatePage, created.Path)
	return created, nil
}

// DeletePage removes a page.
func (s *Set) DeletePage(path string) error {
	if err := s.permitted(KindDeletePage); err != nil {
		return err
	}
	if err := s.sinks.Pages.Delete(path, s.scope.Owner); err != nil {
		return err
	}
	s.record(KindDeletePage, path)
	return nil
}

// CreateTypes records explicit type definitions, stamped with the owner.
func (s *Set) CreateTypes(defs ...schema.TypeDef) error {
	if err := s.permitted(KindCreateTypes); err != nil {
		return err
	}
	for _, def := range defs {
		def.Owner = s.scope.Owner
		if err := s.sinks.Schema.DefineType(def); err != nil {
			return err
		}
		s.record(KindCreateTypes, def.Name)
	}
	return nil
}

// CreateFieldExtension registers a named field extension.
func (s *Set) CreateFieldExtension(ext schema.FieldExtension) error {
	if err := s.permitted(KindCreateFieldExtension); err != nil {
		return err
	}
	ext.Owner = s.scope.Owner
	if err := s.sinks.Schema.RegisterFieldExtension(ext); err != nil {
		return err
	}
	s.record(KindCreateFieldExtension, ext.Name)
	return nil
}

// CreateResolverBinding attaches a resolver to a type field.
func (s *Set) CreateResolverBinding(b schema.ResolverBinding) error {
	if err := s.permitted(KindCreateResolverBinding); err != nil {
		return err
	}
	b.Owner = s.scope.Owner
	if err := s.sinks.Schema.BindResolver(b); err != nil {
		return err
	}
	s.record(KindCreateResolverBinding, b.Type+"."+b.Field)
	return nil
}

// SetBabelPreset appends a Babel entry for a toolchain stage.
func (s *Set) SetBabelPreset(stage buildcfg.Stage, entry buildcfg.BabelEntry) error {
	if err := s.permitted(KindSetBabelPreset); err != nil {
		return err
	}
	entry.Owner = s.scope.Owner
	if err := s.sinks.BuildCfg.SetBabelPreset(stage, entry); err != nil {
		return err
	}
	s.record(KindSetBabelPreset, string(stage)+":"+entry.Name)
	return nil
}

// SetWebpackConfig merges a bundler config fragment for a toolchain stage.
func (s *Set) SetWebpackConfig(stage buildcfg.Stage, fragment map[string]any) error {
	if err := s.permitted(KindSetWebpackConfig); err != nil {
		return err
	}
	if err := s.sinks.BuildCfg.SetWebpackConfig(stage, fragment); err != nil {
		return err
	}
	s.record(KindSetWebpackConfig, string(stage))
	return nil
}

// RegisterExtensions declares extra resolvable source extensions.
func (s *Set) RegisterExtensions(exts ...string) error {
	if err := s.permitted(KindRegisterExtensions); err != nil {
		return err
	}
	if err := s.sinks.BuildCfg.RegisterExtensions(exts...); err != nil {
		return err
	}
	s.record(KindRegisterExtensions, "")
	return nil
}

// SetDevMiddleware attaches a handler to the dev server.
func (s *Set) SetDevMiddleware(pattern string, handler http.Handler) error {
	if err := s.permitted(KindSetDevMiddleware); err != nil {
		return err
	}
	if s.sinks.Middleware == nil {
		return fmt.Errorf("dev middleware sink not available outside the dev server")
	}
	s.sinks.Middleware.Handle(pattern, handler)
	s.record(KindSetDevMiddleware, pattern)
	return nil
}

// ReplaceSource replaces the content of the node under preprocessing.
func (s *Set) ReplaceSource(content []byte) error {
	if err := s.permitted(KindReplaceSource); err != nil {
		return err
	}
	if s.scope.NodeID == "" {
		return fmt.Errorf("replaceSource is only available during preprocessSource")
	}
	if err := s.sinks.Nodes.SetContent(s.scope.NodeID, content, nodes.Digest(content)); err != nil {
		return err
	}
	s.record(KindReplaceSource, s.scope.NodeID)
	return nil
}

// TriggerSideEffect records a named expensive side effect for the build
// runner to execute after page creation.
func (s *Set) TriggerSideEffect(name string) error {
	if err := s.permitted(KindTriggerSideEffect); err != nil {
		return err
	}
	if s.sinks.SideEffects == nil {
		return fmt.Errorf("side effect log not available")
	}
	s.sinks.SideEffects.Add(s.scope.Owner, name)
	s.record(KindTriggerSideEffect, name)
	return nil
}
