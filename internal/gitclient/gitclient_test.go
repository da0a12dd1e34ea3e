package gitclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initSourceRepo creates a local repository with one committed file and
// returns its path. Local paths work as clone URLs, so tests never touch the
// network.
func initSourceRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "origin")
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}

	commitFile(t, repo, dir, "index.md", "# Hello\n")
	return dir, repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	_, err = wt.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestCloneAndHeadCommit(t *testing.T) {
	origin, _ := initSourceRepo(t)

	workspace := t.TempDir()
	client := NewClient(workspace, nil)

	path, err := client.Clone(t.Context(), Repo{Name: "content", URL: origin})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if path != filepath.Join(workspace, "content") {
		t.Errorf("unexpected checkout path %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, "index.md")); err != nil {
		t.Errorf("expected cloned file: %v", err)
	}

	hash, err := client.HeadCommit("content")
	if err != nil {
		t.Fatalf("head commit: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("unexpected hash %q", hash)
	}
}

func TestUpdateClonesWhenMissing(t *testing.T) {
	origin, _ := initSourceRepo(t)

	client := NewClient(t.TempDir(), nil)

	path, changed, err := client.Update(t.Context(), Repo{Name: "content", URL: origin})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !changed {
		t.Error("initial update should report a change")
	}
	if _, err := os.Stat(filepath.Join(path, "index.md")); err != nil {
		t.Errorf("expected cloned file: %v", err)
	}
}

func TestUpdatePullsNewCommits(t *testing.T) {
	origin, originRepo := initSourceRepo(t)

	client := NewClient(t.TempDir(), nil)
	repo := Repo{Name: "content", URL: origin}

	if _, err := client.Clone(t.Context(), repo); err != nil {
		t.Fatalf("clone: %v", err)
	}

	// Up to date: no change reported.
	_, changed, err := client.Update(t.Context(), repo)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if changed {
		t.Error("no new commits, update should report unchanged")
	}

	commitFile(t, originRepo, origin, "about.md", "# About\n")

	path, changed, err := client.Update(t.Context(), repo)
	if err != nil {
		t.Fatalf("update after commit: %v", err)
	}
	if !changed {
		t.Error("update should report a change after new commit")
	}
	if _, err := os.Stat(filepath.Join(path, "about.md")); err != nil {
		t.Errorf("expected pulled file: %v", err)
	}
}

func TestAuthMethodValidation(t *testing.T) {
	tests := []struct {
		name      string
		auth      *Auth
		expectErr bool
	}{
		{name: "nil auth", auth: nil},
		{name: "none", auth: &Auth{Type: "none"}},
		{name: "token without token", auth: &Auth{Type: "token"}, expectErr: true},
		{name: "token", auth: &Auth{Type: "token", Token: "secret"}},
		{name: "basic incomplete", auth: &Auth{Type: "basic", Username: "u"}, expectErr: true},
		{name: "basic", auth: &Auth{Type: "basic", Username: "u", Password: "p"}},
		{name: "unsupported", auth: &Auth{Type: "kerberos"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authMethod(tt.auth)
			if tt.expectErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
