// Package filesystem is the builtin source plugin that turns files under a
// configured directory into File nodes.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
)

// Name is the catalog name of the plugin.
const Name = "source-filesystem"

// NodeTypeFile is the node type created for every sourced file.
const NodeTypeFile = "File"

// Options configure which directory to source and what to skip.
type Options struct {
	// Path is the directory to walk, relative to the site root or absolute.
	Path string `yaml:"path" validate:"required"`

	// Name tags sourced nodes so multiple instances can be told apart.
	Name string `yaml:"name"`

	// Ignore lists glob patterns (matched against the file's relative path
	// and its base name) to skip.
	Ignore []string `yaml:"ignore"`
}

// Plugin sources File nodes from a local directory.
type Plugin struct {
	opts Options
}

// New creates an unconfigured filesystem source plugin.
func New() plugin.Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "v1.0.0",
		Description: "Sources File nodes from a local directory tree.",
		Author:      "SiteWright",
	}
}

func (p *Plugin) PluginOptionsSchema() any { return &p.opts }

// SourceNodes walks the configured directory and creates one File node per
// regular file.
func (p *Plugin) SourceNodes(ctx context.Context, a *lifecycle.Args) error {
	root := p.opts.Path
	if root == "" {
		return fmt.Errorf("source path not configured")
	}

	count, err := SourceTree(ctx, a, root, p.opts.Ignore, map[string]any{
		"sourceInstanceName": p.opts.Name,
	})
	if err != nil {
		return err
	}

	a.Log.Info("Sourced files",
		logfields.Plugin(Name),
		logfields.Path(root),
		logfields.Count(count))
	return nil
}

// SourceTree walks root and creates a File node for every regular file not
// matched by ignore. extraFields are merged into every node. It is shared
// with the gitsource plugin, which sources a cloned checkout the same way.
func SourceTree(ctx context.Context, a *lifecycle.Args, root string, ignore []string, extraFields map[string]any) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			// Never descend into VCS metadata.
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if ignored(rel, d.Name(), ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ignored(rel, d.Name(), ignore) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		ext := filepath.Ext(path)
		fields := map[string]any{
			"absolutePath": path,
			"relativePath": filepath.ToSlash(rel),
			"base":         d.Name(),
			"ext":          ext,
			"size":         info.Size(),
			"modifiedTime": info.ModTime().UTC().Format(time.RFC3339),
		}
		for k, v := range extraFields {
			if v != nil && v != "" {
				fields[k] = v
			}
		}

		_, createErr := a.Actions.CreateNode(nodes.Node{
			Type:          NodeTypeFile,
			MediaType:     MediaType(ext),
			ContentDigest: nodes.Digest(content),
			Fields:        fields,
			Content:       content,
		})
		if createErr != nil {
			return createErr
		}
		count++
		return nil
	})
	return count, err
}

// ignored reports whether rel or base matches any ignore pattern.
func ignored(rel, base string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// MediaType maps a file extension to an IANA media type, with a stable
// fallback for unknown extensions.
func MediaType(ext string) string {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip charset parameters so media types compare cleanly.
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
