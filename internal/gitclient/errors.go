package gitclient

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// CloneError wraps a failed clone or pull with the repository identity.
type CloneError struct {
	Repo string
	URL  string
	Err  error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("repository %s (%s): %v", e.Repo, e.URL, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// IsAuthError reports whether err stems from rejected credentials.
func IsAuthError(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed)
}

// IsNotFound reports whether err indicates a missing remote repository.
func IsNotFound(err error) bool {
	return errors.Is(err, transport.ErrRepositoryNotFound)
}
