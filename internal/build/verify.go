package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// BrokenLink is one internal link in the rendered output whose target does
// not exist.
type BrokenLink struct {
	Page   string // site-relative path of the page containing the link
	Target string // the link as written
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s -> %s", b.Page, b.Target)
}

// stageVerify checks internal links in the written output. Broken links are
// warnings, never build failures.
func stageVerify(ctx context.Context, st *State) error {
	if !st.Config.Output.Verify {
		return nil
	}

	broken, err := VerifyOutput(ctx, st.OutputDir, st.Config.Site.BaseURL)
	if err != nil {
		return newWarnStageError(StageVerify, err)
	}
	if len(broken) == 0 {
		return nil
	}

	for _, b := range broken {
		st.Report.AddIssue(StageVerify, SeverityWarning, "broken internal link: "+b.String())
		st.Log.Warn("Broken internal link",
			logfields.Page(b.Page),
			logfields.URL(b.Target))
	}
	return newWarnStageError(StageVerify, fmt.Errorf("%d broken internal links", len(broken)))
}

// VerifyOutput walks the rendered output directory, extracts internal links
// from every HTML file, and reports links whose targets do not exist in the
// output tree.
func VerifyOutput(ctx context.Context, outputDir, baseURL string) ([]BrokenLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{}
	}

	// Index everything the output contains so lookups are O(1).
	exists := make(map[string]bool)
	var htmlFiles []string
	err = filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(outputDir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		exists["/"+rel] = true
		if !d.IsDir() && strings.HasSuffix(p, ".html") {
			htmlFiles = append(htmlFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, swerrors.WorkspaceError("walk output directory", err)
	}

	var broken []BrokenLink
	for _, file := range htmlFiles {
		if err := ctx.Err(); err != nil {
			return broken, err
		}

		rel, _ := filepath.Rel(outputDir, file)
		pagePath := "/" + filepath.ToSlash(rel)

		links, err := extractInternalLinks(file, base)
		if err != nil {
			return broken, err
		}
		for _, link := range links {
			if !targetExists(exists, pagePath, link) {
				broken = append(broken, BrokenLink{Page: pagePath, Target: link})
			}
		}
	}
	return broken, nil
}

// extractInternalLinks parses one HTML file and returns the internal link
// targets of a/img/script/link elements.
func extractInternalLinks(htmlPath string, base *url.URL) ([]string, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, swerrors.WorkspaceError("open rendered page", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return extractInternalLinksFromReader(file, base)
}

func extractInternalLinksFromReader(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, swerrors.Wrap(err, swerrors.CategoryRender, swerrors.SeverityWarning, "failed to parse rendered HTML")
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var target string
			switch n.Data {
			case "a", "link":
				target = attr(n, "href")
			case "img", "script":
				target = attr(n, "src")
			}
			if target != "" && isInternal(target, base) && !isFragmentOrSpecial(target) {
				links = append(links, target)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isFragmentOrSpecial(link string) bool {
	return strings.HasPrefix(link, "#") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") ||
		strings.HasPrefix(link, "javascript:")
}

func isInternal(link string, base *url.URL) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	return base != nil && base.Host != "" && u.Host == base.Host
}

// targetExists resolves a link against its containing page and checks the
// output index. Directory-style links match their index.html.
func targetExists(exists map[string]bool, pagePath, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		return true // pure fragment or query
	}
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(pagePath), target)
	}
	target = path.Clean(target)

	if exists[target] {
		return true
	}
	if exists[path.Join(target, "index.html")] {
		return true
	}
	return exists[target+".html"]
}
