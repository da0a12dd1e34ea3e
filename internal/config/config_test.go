package config

import (
	"os"
	"path/filepath"
	"testing"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitewright.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  baseUrl: https://example.com
plugins:
  - name: source-filesystem
    options:
      path: ./content
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Site.Title != "SiteWright Site" {
		t.Errorf("default title = %q", cfg.Site.Title)
	}
	if cfg.Output.Directory != "./public" {
		t.Errorf("default output dir = %q", cfg.Output.Directory)
	}
	if cfg.Dev.Addr != ":8000" {
		t.Errorf("default dev addr = %q", cfg.Dev.Addr)
	}
	if cfg.Dev.DebounceMS != 300 {
		t.Errorf("default debounce = %d", cfg.Dev.DebounceMS)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !swerrors.IsCategory(err, swerrors.CategoryConfig) {
		t.Errorf("category = %v", swerrors.GetCategory(err))
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SW_TEST_TOKEN", "sekrit")

	path := writeConfig(t, `
site:
  title: Docs
plugins:
  - name: source-git
    options:
      name: docs
      url: https://git.example.com/docs.git
      auth:
        type: token
        token: ${SW_TEST_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	auth, ok := cfg.Plugins[0].Options["auth"].(map[string]any)
	if !ok {
		t.Fatalf("auth options = %#v", cfg.Plugins[0].Options["auth"])
	}
	if auth["token"] != "sekrit" {
		t.Errorf("token = %v, want expanded env value", auth["token"])
	}
}

func TestLoadRejectsDuplicatePlugins(t *testing.T) {
	path := writeConfig(t, `
plugins:
  - name: transformer-markdown
  - name: transformer-markdown
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected duplicate plugin error")
	}
	if !swerrors.IsCategory(err, swerrors.CategoryValidation) {
		t.Errorf("category = %v", swerrors.GetCategory(err))
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: loud
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for logging level")
	}
}

func TestLoadRelayRequiresURL(t *testing.T) {
	path := writeConfig(t, `
relay:
  enabled: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for relay without url")
	}
}

func TestRelayDefaults(t *testing.T) {
	path := writeConfig(t, `
relay:
  enabled: true
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Subject != "sitewright.builds" {
		t.Errorf("subject = %q", cfg.Relay.Subject)
	}
	if cfg.Relay.KVBucket != "sitewright-reports" {
		t.Errorf("kv bucket = %q", cfg.Relay.KVBucket)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitewright.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when file exists without force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init force: %v", err)
	}

	// The example must itself load cleanly.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if len(cfg.Plugins) != 2 {
		t.Errorf("example plugins = %d", len(cfg.Plugins))
	}
}

func TestPluginSpecs(t *testing.T) {
	cfg := &Config{Plugins: []PluginSpec{
		{Name: "source-filesystem", Options: map[string]any{"path": "./content"}},
		{Name: "transformer-markdown"},
	}}

	specs := cfg.PluginSpecs()
	if len(specs) != 2 {
		t.Fatalf("specs = %d", len(specs))
	}
	if specs[0].Name != "source-filesystem" || specs[0].Options["path"] != "./content" {
		t.Errorf("spec[0] = %+v", specs[0])
	}
}
