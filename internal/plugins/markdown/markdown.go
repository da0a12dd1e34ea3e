// Package markdown is the builtin transformer plugin: it derives
// MarkdownPage nodes from markdown File nodes and creates a page for each.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitewright/internal/frontmatter"
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
	"git.home.luguber.info/inful/sitewright/internal/plugin"
	"git.home.luguber.info/inful/sitewright/internal/schema"
)

// Name is the catalog name of the plugin.
const Name = "transformer-markdown"

// NodeTypeMarkdownPage is the node type of derived markdown nodes.
const NodeTypeMarkdownPage = "MarkdownPage"

const mediaTypeMarkdown = "text/markdown"

// wordsPerMinute is the reading-speed constant behind timeToRead.
const wordsPerMinute = 238

// Options configure page derivation.
type Options struct {
	// Component names the template pages created by this plugin render with.
	Component string `yaml:"component"`

	// ExcerptLength is the maximum excerpt length in runes.
	ExcerptLength int `yaml:"excerptLength" validate:"gte=0"`

	// PathPrefix is prepended to every derived page path.
	PathPrefix string `yaml:"pathPrefix"`
}

// Plugin transforms markdown File nodes into MarkdownPage nodes and pages.
type Plugin struct {
	opts Options
	md   goldmark.Markdown
}

// New creates a markdown transformer with default options.
func New() plugin.Plugin {
	return &Plugin{
		opts: Options{Component: "markdown-page", ExcerptLength: 140},
		md:   goldmark.New(),
	}
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "v1.0.0",
		Description: "Transforms markdown files into pages with frontmatter fields.",
		Author:      "SiteWright",
	}
}

func (p *Plugin) PluginOptionsSchema() any { return &p.opts }

// ShouldOnCreateNode declines everything but markdown files. It keeps the
// per-node dispatch cheap: non-markdown nodes never reach OnCreateNode.
func (p *Plugin) ShouldOnCreateNode(a *lifecycle.NodeArgs) bool {
	return a.Node.MediaType == mediaTypeMarkdown
}

// OnCreateNode parses a markdown File node and derives a MarkdownPage child
// node carrying frontmatter fields, rendered HTML, and reading metrics.
func (p *Plugin) OnCreateNode(ctx context.Context, a *lifecycle.NodeArgs) error {
	fm, body, _, _, err := frontmatter.Split(a.Node.Content)
	if err != nil {
		return fmt.Errorf("split frontmatter of %s: %w", a.Node.ID, err)
	}

	fields := map[string]any{}
	if len(fm) > 0 {
		parsed, parseErr := frontmatter.ParseYAML(fm)
		if parseErr != nil {
			return fmt.Errorf("parse frontmatter of %s: %w", a.Node.ID, parseErr)
		}
		fields = parsed
	}

	var html bytes.Buffer
	if err := p.md.Convert(body, &html); err != nil {
		return fmt.Errorf("render markdown of %s: %w", a.Node.ID, err)
	}

	fingerprint, err := contentFingerprint(fields, body)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", a.Node.ID, err)
	}

	words := len(strings.Fields(string(body)))
	title, _ := fields["title"].(string)
	if title == "" {
		title = firstHeading(body)
	}

	nodeFields := map[string]any{
		"frontmatter":  fields,
		"title":        title,
		"html":         html.String(),
		"excerpt":      excerpt(body, p.opts.ExcerptLength),
		"wordCount":    words,
		"timeToRead":   timeToRead(words),
		"relativePath": a.Node.StringField("relativePath"),
	}
	if slug, ok := fields["slug"].(string); ok && slug != "" {
		nodeFields["slug"] = slug
	}

	childID, err := a.Actions.CreateNode(nodes.Node{
		Type:          NodeTypeMarkdownPage,
		Parent:        a.Node.ID,
		MediaType:     "text/html",
		ContentDigest: fingerprint,
		Fields:        nodeFields,
		Content:       html.Bytes(),
	})
	if err != nil {
		return err
	}

	return a.Actions.CreateParentChildLink(a.Node.ID, childID)
}

// SetFieldsOnGraphQLNodeType declares the computed fields MarkdownPage nodes
// carry beyond their inferred shape.
func (p *Plugin) SetFieldsOnGraphQLNodeType(ctx context.Context, a *lifecycle.TypeArgs) (map[string]schema.FieldDef, error) {
	if a.Type != NodeTypeMarkdownPage {
		return nil, nil
	}
	return map[string]schema.FieldDef{
		"html":       {Kind: schema.KindString, Description: "Rendered HTML body."},
		"excerpt":    {Kind: schema.KindString, Description: "Leading plain-text excerpt."},
		"timeToRead": {Kind: schema.KindInt, Description: "Estimated reading time, minutes."},
		"wordCount":  {Kind: schema.KindInt, Description: "Body word count."},
	}, nil
}

// CreatePages creates one page per MarkdownPage node.
func (p *Plugin) CreatePages(ctx context.Context, a *lifecycle.Args) error {
	for _, n := range a.Nodes.ByType(NodeTypeMarkdownPage) {
		path := p.pagePath(&n)

		_, err := a.Actions.CreatePage(pages.Page{
			Path:      path,
			Component: p.opts.Component,
			Context: map[string]any{
				"nodeId": n.ID,
				"title":  n.StringField("title"),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateResolvers binds the html resolver so queries read the rendered body
// instead of raw content.
func (p *Plugin) CreateResolvers(ctx context.Context, a *lifecycle.Args) error {
	return a.Actions.CreateResolverBinding(schema.ResolverBinding{
		Type:  NodeTypeMarkdownPage,
		Field: "html",
		Resolve: func(nodeFields map[string]any) (any, error) {
			return nodeFields["html"], nil
		},
	})
}

// pagePath derives the page path: explicit slug, then title slug, then the
// source file's relative path.
func (p *Plugin) pagePath(n *nodes.Node) string {
	var path string
	switch {
	case n.StringField("slug") != "":
		path = n.StringField("slug")
	case n.StringField("title") != "":
		path = pages.Slug(n.StringField("title"))
	default:
		rel := n.StringField("relativePath")
		rel = strings.TrimSuffix(rel, ".md")
		rel = strings.TrimSuffix(rel, ".markdown")
		rel = strings.TrimSuffix(rel, "/index")
		if rel == "index" {
			rel = ""
		}
		path = rel
	}
	return pages.NormalizePath(p.opts.PathPrefix + "/" + strings.Trim(path, "/"))
}

// contentFingerprint computes the stable mdfp digest over canonicalized
// frontmatter and body, excluding the fingerprint field itself.
func contentFingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	serialized := ""
	if len(forHash) > 0 {
		raw, err := frontmatter.SerializeYAML(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		serialized = strings.TrimSuffix(string(raw), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(serialized, string(body)), nil
}

// excerpt returns the first paragraph of body as plain text, truncated to
// limit runes.
func excerpt(body []byte, limit int) string {
	if limit <= 0 {
		limit = 140
	}

	var para []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		// Skip headings and code fences; the excerpt is prose.
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		para = append(para, line)
	}

	text := strings.Join(para, " ")
	runes := []rune(text)
	if len(runes) > limit {
		text = strings.TrimSpace(string(runes[:limit])) + "…"
	}
	return text
}

// firstHeading returns the text of the first ATX heading, if any.
func firstHeading(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

func timeToRead(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
