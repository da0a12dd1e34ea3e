package lifecycle

import "fmt"

// UnknownHookError reports a hook name outside the fixed descriptor table.
type UnknownHookError struct {
	Name HookName
}

func (e *UnknownHookError) Error() string {
	return fmt.Sprintf("unknown hook %q", e.Name)
}

// DuplicateHookError reports a plugin registering a second implementation
// for the same hook. A plugin declares at most one implementation per name.
type DuplicateHookError struct {
	Owner string
	Name  HookName
}

func (e *DuplicateHookError) Error() string {
	return fmt.Sprintf("plugin %s already registered an implementation for hook %s", e.Owner, e.Name)
}

// SignatureError reports an implementation whose Go type does not match the
// hook's expected signature.
type SignatureError struct {
	Name HookName
	Got  string
	Want string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("hook %s implementation has type %s, want %s", e.Name, e.Got, e.Want)
}
