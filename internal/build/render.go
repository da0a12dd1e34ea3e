package build

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
	"git.home.luguber.info/inful/sitewright/internal/nodes"
	"git.home.luguber.info/inful/sitewright/internal/pages"
)

// layoutTemplate is the minimal page shell. Running a real client bundler
// over the merged toolchain config is external; the host writes plain HTML.
const layoutTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}{{if ne .Title .SiteTitle}} | {{.SiteTitle}}{{end}}</title>
{{if .Description}}<meta name="description" content="{{.Description}}">{{end}}
</head>
<body>
<header><a href="/">{{.SiteTitle}}</a></header>
<main data-component="{{.Component}}">
{{.Body}}
</main>
</body>
</html>
`

type layoutData struct {
	SiteTitle   string
	Description string
	Title       string
	Component   string
	Body        template.HTML
}

// stageRender writes the page set and static assets to the output directory.
func stageRender(ctx context.Context, st *State) error {
	tmpl, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return newFatalStageError(StageRender, err)
	}

	if st.Config.Output.Clean {
		if err := os.RemoveAll(st.OutputDir); err != nil {
			return newFatalStageError(StageRender, swerrors.WorkspaceError("clean output directory", err))
		}
	}
	if err := os.MkdirAll(st.OutputDir, 0o755); err != nil {
		return newFatalStageError(StageRender, swerrors.WorkspaceError("create output directory", err))
	}

	rendered := 0
	for _, p := range st.Pages.All() {
		if err := ctx.Err(); err != nil {
			return newCanceledStageError(StageRender, err)
		}
		if err := st.renderPage(tmpl, p); err != nil {
			return newFatalStageError(StageRender, err)
		}
		rendered++
	}
	st.Report.RenderedPages = rendered

	copied, err := st.copyAssets()
	if err != nil {
		return newFatalStageError(StageRender, err)
	}

	st.Log.Info("Output written",
		logfields.Path(st.OutputDir),
		logfields.Count(rendered+copied))
	return nil
}

// renderPage resolves the page's node, computes its body through the bound
// resolver when one exists, and writes <path>/index.html.
func (st *State) renderPage(tmpl *template.Template, p pages.Page) error {
	data := layoutData{
		SiteTitle:   st.Config.Site.Title,
		Description: st.Config.Site.Description,
		Title:       strings.Trim(p.Path, "/"),
		Component:   p.Component,
	}
	if data.Title == "" {
		data.Title = st.Config.Site.Title
	}

	if nodeID, ok := p.Context["nodeId"].(string); ok {
		if node, found := st.Nodes.Get(nodeID); found {
			if t := node.StringField("title"); t != "" {
				data.Title = t
			}
			body, err := st.resolveBody(node)
			if err != nil {
				return swerrors.RenderFailed(p.Path, err)
			}
			data.Body = template.HTML(body)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return swerrors.RenderFailed(p.Path, err)
	}

	dir := filepath.Join(st.OutputDir, filepath.FromSlash(strings.Trim(p.Path, "/")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return swerrors.RenderFailed(p.Path, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), buf.Bytes(), 0o644); err != nil {
		return swerrors.RenderFailed(p.Path, err)
	}
	return nil
}

// resolveBody computes the page body: the node's bound html resolver when
// one was registered, the raw html field otherwise.
func (st *State) resolveBody(node nodes.Node) (string, error) {
	if binding, ok := st.Schema.Resolver(node.Type, "html"); ok && binding.Resolve != nil {
		v, err := binding.Resolve(node.Fields)
		if err != nil {
			return "", err
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return "", nil
	}
	return node.StringField("html"), nil
}

// copyAssets writes sourced non-markdown files (images, stylesheets, plain
// documents) into the output tree at their relative paths.
func (st *State) copyAssets() (int, error) {
	copied := 0
	for _, n := range st.Nodes.ByType("File") {
		if len(n.Content) == 0 {
			continue
		}
		mt := n.MediaType
		if mt == "text/markdown" {
			continue
		}
		rel := n.StringField("relativePath")
		if rel == "" {
			continue
		}

		dst := filepath.Join(st.OutputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return copied, swerrors.WorkspaceError("create asset directory", err)
		}
		if err := os.WriteFile(dst, n.Content, 0o644); err != nil {
			return copied, swerrors.WorkspaceError("write asset", err)
		}
		copied++
	}
	return copied, nil
}
