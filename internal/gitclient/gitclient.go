// Package gitclient wraps go-git for the gitsource plugin: cloning remote
// content repositories into the build workspace and keeping them fresh in
// watch mode.
package gitclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// Auth describes how to authenticate against a remote repository.
type Auth struct {
	// Type is one of "none", "ssh", "token", "basic".
	Type     string `yaml:"type" validate:"omitempty,oneof=none ssh token basic"`
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	KeyPath  string `yaml:"keyPath"`
}

// Repo identifies one remote repository to mirror into the workspace.
type Repo struct {
	Name   string `yaml:"name" validate:"required"`
	URL    string `yaml:"url" validate:"required"`
	Branch string `yaml:"branch"`
	Auth   *Auth  `yaml:"auth"`
}

// Client clones and updates repositories under a workspace directory.
type Client struct {
	workspaceDir string
	log          *slog.Logger
}

// NewClient creates a git client rooted at workspaceDir.
func NewClient(workspaceDir string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{workspaceDir: workspaceDir, log: log}
}

// Dir returns the checkout path for a repository name.
func (c *Client) Dir(name string) string {
	return filepath.Join(c.workspaceDir, name)
}

// Clone clones a repository into the workspace, replacing any existing
// checkout. Returns the checkout path.
func (c *Client) Clone(ctx context.Context, repo Repo) (string, error) {
	repoPath := c.Dir(repo.Name)

	c.log.Debug("Cloning repository",
		logfields.URL(repo.URL),
		logfields.Name(repo.Name),
		slog.String("branch", repo.Branch),
		logfields.Path(repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("remove existing checkout: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL: repo.URL,
	}
	if repo.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		cloneOptions.SingleBranch = true
	}

	auth, err := authMethod(repo.Auth)
	if err != nil {
		return "", err
	}
	cloneOptions.Auth = auth

	repository, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
	if err != nil {
		return "", &CloneError{Repo: repo.Name, URL: repo.URL, Err: err}
	}

	if ref, headErr := repository.Head(); headErr == nil {
		c.log.Info("Repository cloned",
			logfields.Name(repo.Name),
			slog.String("commit", shortHash(ref.Hash())),
			logfields.Path(repoPath))
	}

	return repoPath, nil
}

// Update pulls the latest changes into an existing checkout, cloning instead
// when the checkout is missing. Returns the checkout path and whether
// anything changed.
func (c *Client) Update(ctx context.Context, repo Repo) (string, bool, error) {
	repoPath := c.Dir(repo.Name)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		path, cloneErr := c.Clone(ctx, repo)
		return path, cloneErr == nil, cloneErr
	}

	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", false, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("get worktree: %w", err)
	}

	pullOptions := &git.PullOptions{RemoteName: "origin"}
	auth, err := authMethod(repo.Auth)
	if err != nil {
		return "", false, err
	}
	pullOptions.Auth = auth

	err = worktree.PullContext(ctx, pullOptions)
	switch {
	case err == git.NoErrAlreadyUpToDate:
		c.log.Debug("Repository already up to date", logfields.Name(repo.Name))
		return repoPath, false, nil
	case err != nil:
		return "", false, &CloneError{Repo: repo.Name, URL: repo.URL, Err: err}
	}

	if ref, headErr := repository.Head(); headErr == nil {
		c.log.Info("Repository updated",
			logfields.Name(repo.Name),
			slog.String("commit", shortHash(ref.Hash())))
	}
	return repoPath, true, nil
}

// HeadCommit returns the current HEAD hash of a checkout.
func (c *Client) HeadCommit(name string) (string, error) {
	repository, err := git.PlainOpen(c.Dir(name))
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}

// authMethod converts an Auth config into a go-git transport method.
func authMethod(a *Auth) (transport.AuthMethod, error) {
	if a == nil {
		return nil, nil
	}

	switch a.Type {
	case "none", "":
		return nil, nil

	case "ssh":
		keyPath := a.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("load SSH key from %s: %w", keyPath, err)
		}
		return publicKeys, nil

	case "token":
		if a.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		// GitHub/GitLab accept "token" as the basic-auth username.
		return &http.BasicAuth{Username: "token", Password: a.Token}, nil

	case "basic":
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil

	default:
		return nil, fmt.Errorf("unsupported authentication type: %s", a.Type)
	}
}
