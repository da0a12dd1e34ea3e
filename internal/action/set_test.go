package action

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitewright/internal/buildcfg"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) IncActionApplied(kind string) {
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[kind]++
}

type memoryJournal struct {
	events []string
}

func (j *memoryJournal) Append(_ context.Context, _, eventType string, _ []byte, _ map[string]string) error {
	j.events = append(j.events, eventType)
	return nil
}

func newTestSinks() (Sinks, *countingRecorder, *memoryJournal) {
	rec := &countingRecorder{}
	journal := &memoryJournal{}
	return Sinks{
		Nodes:       nodes.NewStore(),
		Pages:       pages.NewStore(),
		Schema:      schema.NewStore(),
		BuildCfg:    buildcfg.New(),
		SideEffects: NewSideEffectLog(),
		BuildID:     "b-1",
		Journal:     journal,
		Recorder:    rec,
	}, rec, journal
}

func TestAllowlistEnforced(t *testing.T) {
	sinks, _, _ := newTestSinks()

	// sourceNodes-shaped scope: node channels only.
	set := NewSet(Scope{
		Owner:   "filesystem",
		Hook:    "sourceNodes",
		Allowed: []Kind{KindCreateNode, KindDeleteNode, KindCreateNodeField, KindCreateParentChildLink},
	}, sinks)

	_, err := set.CreateNode(nodes.Node{Type: "File"})
	require.NoError(t, err)

	_, err = set.CreatePage(pages.Page{Path: "/x/", Component: "c"})
	var notPermitted *NotPermittedError
	require.ErrorAs(t, err, &notPermitted)
	assert.Equal(t, "sourceNodes", notPermitted.Hook)
	assert.Equal(t, KindCreatePage, notPermitted.Action)
	assert.Equal(t, 0, sinks.Pages.Len(), "nothing applied on a denied action")

	assert.Error(t, set.RegisterExtensions(".ts"))
	assert.Error(t, set.TriggerSideEffect("x"))
}

func TestCreateNodeStampsOwnerAndRecords(t *testing.T) {
	sinks, rec, journal := newTestSinks()
	set := NewSet(Scope{Owner: "filesystem", Hook: "sourceNodes", Allowed: []Kind{KindCreateNode}}, sinks)

	id, err := set.CreateNode(nodes.Node{Type: "File", Owner: "spoofed"})
	require.NoError(t, err)

	n, ok := sinks.Nodes.Get(id)
	require.True(t, ok)
	assert.Equal(t, "filesystem", n.Owner, "owner is stamped from scope, never trusted from the hook")

	assert.Equal(t, 1, rec.counts[string(KindCreateNode)])
	assert.Equal(t, []string{"action.applied"}, journal.events)
	assert.Equal(t, []string{id}, set.CreatedNodes())
}

func TestCreatePageTracksCreatedAndStateful(t *testing.T) {
	sinks, _, _ := newTestSinks()

	declarative := NewSet(Scope{Owner: "markdown", Hook: "createPages", Allowed: []Kind{KindCreatePage, KindDeletePage}}, sinks)
	p, err := declarative.CreatePage(pages.Page{Path: "/docs/", Component: "page"})
	require.NoError(t, err)
	assert.False(t, p.Stateful)
	assert.Equal(t, "markdown", p.Owner)
	assert.Len(t, declarative.CreatedPages(), 1)

	stateful := NewSet(Scope{Owner: "dash", Hook: "createPagesStatefully", Allowed: []Kind{KindCreatePage, KindDeletePage}, StatefulPages: true}, sinks)
	p, err = stateful.CreatePage(pages.Page{Path: "/admin/", Component: "admin"})
	require.NoError(t, err)
	assert.True(t, p.Stateful)

	// The declarative set cannot delete the stateful page.
	assert.Error(t, declarative.DeletePage("/admin/"))
	require.NoError(t, stateful.DeletePage("/admin/"))
}

func TestSchemaChannels(t *testing.T) {
	sinks, _, _ := newTestSinks()
	set := NewSet(Scope{
		Owner:   "markdown",
		Hook:    "createSchemaCustomization",
		Allowed: []Kind{KindCreateTypes, KindCreateFieldExtension},
	}, sinks)

	require.NoError(t, set.CreateTypes(schema.TypeDef{
		Name:   "MarkdownPage",
		Fields: map[string]schema.FieldDef{"title": {Kind: schema.KindString}},
	}))
	require.NoError(t, set.CreateFieldExtension(schema.FieldExtension{
		Name:  "excerptFormat",
		Apply: func(v any, _ map[string]any) (any, error) { return v, nil },
	}))

	snap := sinks.Schema.Snapshot()
	require.Len(t, snap.Types, 1)
	assert.Equal(t, "markdown", snap.Types[0].Owner)
	require.Len(t, snap.Extensions, 1)
	assert.Equal(t, "markdown", snap.Extensions[0].Owner)

	assert.Error(t, set.CreateResolverBinding(schema.ResolverBinding{Type: "T", Field: "f"}),
		"createSchemaCustomization may not bind resolvers")
}

func TestToolchainChannels(t *testing.T) {
	sinks, _, _ := newTestSinks()
	set := NewSet(Scope{
		Owner:   "typescript",
		Hook:    "onCreateWebpackConfig",
		Allowed: []Kind{KindSetWebpackConfig, KindSetBabelPreset, KindRegisterExtensions},
	}, sinks)

	require.NoError(t, set.RegisterExtensions(".ts", ".tsx"))
	require.NoError(t, set.SetBabelPreset(buildcfg.StageDevelop, buildcfg.BabelEntry{Name: "preset-ts"}))
	require.NoError(t, set.SetWebpackConfig(buildcfg.StageDevelop, map[string]any{"mode": "development"}))

	assert.Contains(t, sinks.BuildCfg.Extensions(), ".ts")
	entries := sinks.BuildCfg.BabelConfig(buildcfg.StageDevelop)
	require.Len(t, entries, 1)
	assert.Equal(t, "typescript", entries[0].Owner)
}

func TestReplaceSourceRequiresNodeScope(t *testing.T) {
	sinks, _, _ := newTestSinks()

	id, err := sinks.Nodes.Create(nodes.Node{Type: "File", Owner: "fs", Content: []byte("orig")})
	require.NoError(t, err)

	noNode := NewSet(Scope{Owner: "ts", Hook: "preprocessSource", Allowed: []Kind{KindReplaceSource}}, sinks)
	assert.Error(t, noNode.ReplaceSource([]byte("x")))

	scoped := NewSet(Scope{Owner: "ts", Hook: "preprocessSource", Allowed: []Kind{KindReplaceSource}, NodeID: id}, sinks)
	require.NoError(t, scoped.ReplaceSource([]byte("compiled")))

	n, _ := sinks.Nodes.Get(id)
	assert.Equal(t, []byte("compiled"), n.Content)
	assert.Equal(t, nodes.Digest([]byte("compiled")), n.ContentDigest)
}

func TestTriggerSideEffect(t *testing.T) {
	sinks, _, _ := newTestSinks()
	set := NewSet(Scope{Owner: "images", Hook: "generateSideEffects", Allowed: []Kind{KindTriggerSideEffect}}, sinks)

	require.NoError(t, set.TriggerSideEffect("resize-images"))
	require.NoError(t, set.TriggerSideEffect("generate-og-cards"))

	effects := sinks.SideEffects.All()
	require.Len(t, effects, 2)
	assert.Equal(t, SideEffect{Plugin: "images", Name: "resize-images"}, effects[0])

	sinks.SideEffects.Reset()
	assert.Empty(t, sinks.SideEffects.All())
}

func TestSetDevMiddleware(t *testing.T) {
	sinks, _, _ := newTestSinks()

	// Without a sink (one-shot build) the channel errors even when allowed.
	set := NewSet(Scope{Owner: "proxy", Hook: "onCreateDevServer", Allowed: []Kind{KindSetDevMiddleware}}, sinks)
	assert.Error(t, set.SetDevMiddleware("/api/", http.NotFoundHandler()))

	mux := http.NewServeMux()
	sinks.Middleware = mux
	set = NewSet(Scope{Owner: "proxy", Hook: "onCreateDevServer", Allowed: []Kind{KindSetDevMiddleware}}, sinks)
	require.NoError(t, set.SetDevMiddleware("/api/", http.NotFoundHandler()))

	req, _ := http.NewRequest(http.MethodGet, "/api/x", nil)
	h, pattern := mux.Handler(req)
	assert.NotNil(t, h)
	assert.Equal(t, "/api/", pattern)
}

func TestNotPermittedErrorMessage(t *testing.T) {
	err := &NotPermittedError{Hook: "sourceNodes", Action: KindCreatePage}
	assert.Equal(t, "hook sourceNodes may not invoke action createPage", err.Error())
	assert.True(t, errors.As(error(err), new(*NotPermittedError)))
}
