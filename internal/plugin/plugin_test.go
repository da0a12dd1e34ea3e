package plugin

import (
	"context"
	"errors"
	"testing"

	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
)

// TestMetadataValidation tests plugin metadata validation.
func TestMetadataValidation(t *testing.T) {
	tests := []struct {
		name      string
		metadata  Metadata
		expectErr bool
	}{
		{
			name: "valid metadata",
			metadata: Metadata{
				Name:        "test-plugin",
				Version:     "v1.0.0",
				Description: "Test plugin",
			},
			expectErr: false,
		},
		{
			name: "missing name",
			metadata: Metadata{
				Version: "v1.0.0",
			},
			expectErr: true,
		},
		{
			name: "missing version",
			metadata: Metadata{
				Name: "test-plugin",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.metadata.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMetadataString(t *testing.T) {
	m := Metadata{Name: "source-filesystem", Version: "v1.2.0"}
	if got := m.String(); got != "source-filesystem@v1.2.0" {
		t.Errorf("String() = %q", got)
	}
}

// sourcerPlugin implements two capabilities.
type sourcerPlugin struct{}

func (sourcerPlugin) Metadata() Metadata {
	return Metadata{Name: "test-sourcer", Version: "v1.0.0"}
}

func (sourcerPlugin) SourceNodes(ctx context.Context, a *lifecycle.Args) error { return nil }

func (sourcerPlugin) OnCreateNode(ctx context.Context, a *lifecycle.NodeArgs) error { return nil }

// metadataOnlyPlugin implements no capabilities.
type metadataOnlyPlugin struct{}

func (metadataOnlyPlugin) Metadata() Metadata {
	return Metadata{Name: "test-empty", Version: "v1.0.0"}
}

func TestBindRegistersImplementedCapabilities(t *testing.T) {
	reg := lifecycle.NewRegistry()

	n, err := Bind(reg, sourcerPlugin{})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if n != 2 {
		t.Errorf("bound %d hooks, want 2", n)
	}

	if _, ok := reg.Implementation("test-sourcer", lifecycle.HookSourceNodes); !ok {
		t.Error("sourceNodes not registered")
	}
	if _, ok := reg.Implementation("test-sourcer", lifecycle.HookOnCreateNode); !ok {
		t.Error("onCreateNode not registered")
	}
	if _, ok := reg.Implementation("test-sourcer", lifecycle.HookCreatePages); ok {
		t.Error("createPages should not be registered")
	}
}

func TestBindHandlesPluginWithoutCapabilities(t *testing.T) {
	reg := lifecycle.NewRegistry()

	n, err := Bind(reg, metadataOnlyPlugin{})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if n != 0 {
		t.Errorf("bound %d hooks, want 0", n)
	}
}

func TestBindRejectsDoubleBind(t *testing.T) {
	reg := lifecycle.NewRegistry()

	if _, err := Bind(reg, sourcerPlugin{}); err != nil {
		t.Fatalf("first bind failed: %v", err)
	}

	_, err := Bind(reg, sourcerPlugin{})
	var dup *lifecycle.DuplicateHookError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateHookError, got %v", err)
	}
}
