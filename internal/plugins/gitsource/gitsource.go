// Package gitsource is the builtin source plugin that mirrors a remote git
// repository into the build workspace and sources its files as File nodes.
package gitsource

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/gitclient"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/plugins/filesystem"
)

// Name is the catalog name of the plugin.
const Name = "source-git"

// Options configure the repository to mirror.
type Options struct {
	Name   string          `yaml:"name" validate:"required"`
	URL    string          `yaml:"url" validate:"required"`
	Branch string          `yaml:"branch"`
	Auth   *gitclient.Auth `yaml:"auth"`

	// Subdir restricts sourcing to a directory inside the checkout.
	Subdir string `yaml:"subdir"`

	// Ignore lists glob patterns to skip, as in the filesystem plugin.
	Ignore []string `yaml:"ignore"`

	// RefreshMinutes is the periodic refresh interval under the dev server.
	// Zero disables scheduled refreshes.
	RefreshMinutes int `yaml:"refreshMinutes" validate:"gte=0"`
}

// Plugin clones a repository and sources its files.
type Plugin struct {
	opts Options
}

// New creates an unconfigured git source plugin.
func New() plugin.Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "v1.0.0",
		Description: "Sources File nodes from a remote git repository.",
		Author:      "SiteWright",
	}
}

func (p *Plugin) PluginOptionsSchema() any { return &p.opts }

// RefreshInterval returns the configured periodic refresh interval; the dev
// server's scheduler reads it. Zero means no scheduled refresh.
func (p *Plugin) RefreshInterval() time.Duration {
	return time.Duration(p.opts.RefreshMinutes) * time.Minute
}

// SourceNodes clones or updates the repository into the workspace, then
// creates File nodes for the checkout.
func (p *Plugin) SourceNodes(ctx context.Context, a *lifecycle.Args) error {
	if a.WorkspaceDir == "" {
		return fmt.Errorf("workspace directory not available")
	}

	client := gitclient.NewClient(a.WorkspaceDir, a.Log)
	repo := gitclient.Repo{
		Name:   p.opts.Name,
		URL:    p.opts.URL,
		Branch: p.opts.Branch,
		Auth:   p.opts.Auth,
	}

	path, _, err := client.Update(ctx, repo)
	if err != nil {
		return err
	}

	commit, err := client.HeadCommit(p.opts.Name)
	if err != nil {
		return err
	}

	root := path
	if p.opts.Subdir != "" {
		root = filepath.Join(path, p.opts.Subdir)
	}

	count, err := filesystem.SourceTree(ctx, a, root, p.opts.Ignore, map[string]any{
		"sourceInstanceName": p.opts.Name,
		"repository":         p.opts.URL,
		"commit":             commit,
	})
	if err != nil {
		return err
	}

	a.Log.Info("Sourced repository",
		logfields.Plugin(Name),
		logfields.Name(p.opts.Name),
		logfields.Count(count))
	return nil
}
