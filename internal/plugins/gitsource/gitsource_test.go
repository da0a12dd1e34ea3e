package gitsource

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitewright/internal/action"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/plugins/filesystem"
)

func initOrigin(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "origin")
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func sourceArgs(t *testing.T, workspace string) (*lifecycle.Args, *nodes.Store) {
	t.Helper()

	store := nodes.NewStore()
	desc, ok := lifecycle.Describe(lifecycle.HookSourceNodes)
	require.True(t, ok)

	set := action.NewSet(
		action.Scope{Owner: Name, Hook: string(lifecycle.HookSourceNodes), Allowed: desc.Actions},
		action.Sinks{Nodes: store},
	)
	return &lifecycle.Args{
		BuildID:      "build-test",
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Actions:      set,
		Nodes:        store,
		WorkspaceDir: workspace,
	}, store
}

func TestSourceNodesClonesAndSourcesFiles(t *testing.T) {
	origin := initOrigin(t, map[string]string{
		"README.md":     "# Repo\n",
		"docs/guide.md": "# Guide\n",
	})

	p := New().(*Plugin)
	p.opts = Options{Name: "content", URL: origin}

	a, store := sourceArgs(t, t.TempDir())
	require.NoError(t, p.SourceNodes(t.Context(), a))

	all := store.ByType(filesystem.NodeTypeFile)
	require.Len(t, all, 2)

	for _, n := range all {
		assert.Equal(t, origin, n.StringField("repository"))
		assert.Equal(t, "content", n.StringField("sourceInstanceName"))
		assert.Len(t, n.StringField("commit"), 40)
	}
}

func TestSourceNodesSubdirRestrictsSourcing(t *testing.T) {
	origin := initOrigin(t, map[string]string{
		"README.md":     "# Repo\n",
		"docs/guide.md": "# Guide\n",
		"docs/api.md":   "# API\n",
	})

	p := New().(*Plugin)
	p.opts = Options{Name: "content", URL: origin, Subdir: "docs"}

	a, store := sourceArgs(t, t.TempDir())
	require.NoError(t, p.SourceNodes(t.Context(), a))

	var rels []string
	for _, n := range store.ByType(filesystem.NodeTypeFile) {
		rels = append(rels, n.StringField("relativePath"))
	}
	assert.ElementsMatch(t, []string{"guide.md", "api.md"}, rels)
}

func TestSourceNodesRequiresWorkspace(t *testing.T) {
	p := New().(*Plugin)
	p.opts = Options{Name: "content", URL: "https://example.com/repo.git"}

	a, _ := sourceArgs(t, "")
	require.Error(t, p.SourceNodes(t.Context(), a))
}

func TestRefreshInterval(t *testing.T) {
	p := New().(*Plugin)
	p.opts.RefreshMinutes = 15
	assert.Equal(t, 15*time.Minute, p.RefreshInterval())

	p.opts.RefreshMinutes = 0
	assert.Equal(t, time.Duration(0), p.RefreshInterval())
}
