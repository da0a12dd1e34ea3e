package build

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyOutput(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "index.html"),
		`<html><body><a href="/docs/">docs</a><a href="/missing/">gone</a></body></html>`)
	writeFile(t, filepath.Join(out, "docs", "index.html"),
		`<html><body><a href="../">home</a><img src="/logo.png"><a href="https://other.example.org/x">ext</a></body></html>`)
	writeFile(t, filepath.Join(out, "logo.png"), "png")

	broken, err := VerifyOutput(t.Context(), out, "https://example.com")
	if err != nil {
		t.Fatalf("VerifyOutput: %v", err)
	}
	if len(broken) != 1 {
		t.Fatalf("broken = %+v, want exactly the /missing/ link", broken)
	}
	if broken[0].Target != "/missing/" {
		t.Errorf("target = %s", broken[0].Target)
	}
	if broken[0].Page != "/index.html" {
		t.Errorf("page = %s", broken[0].Page)
	}
}

func TestVerifyOutputSameHostAbsolute(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "index.html"),
		`<html><body><a href="https://example.com/gone/">absolute</a></body></html>`)

	broken, err := VerifyOutput(t.Context(), out, "https://example.com")
	if err != nil {
		t.Fatalf("VerifyOutput: %v", err)
	}
	if len(broken) != 1 {
		t.Fatalf("broken = %+v, want same-host absolute link flagged", broken)
	}
}

func TestExtractInternalLinksSkipsSpecial(t *testing.T) {
	base, _ := url.Parse("https://example.com")
	doc := `<html><body>
<a href="#section">frag</a>
<a href="mailto:x@example.com">mail</a>
<a href="/real/">real</a>
<script src="/app.js"></script>
</body></html>`

	links, err := extractInternalLinksFromReader(strings.NewReader(doc), base)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %v, want /real/ and /app.js", links)
	}
}
