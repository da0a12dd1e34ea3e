package plugin

import "fmt"

// UnknownPluginError reports a configured plugin name with no catalog entry.
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown plugin %q", e.Name)
}

// OptionsError reports plugin options that failed decoding or validation.
type OptionsError struct {
	Plugin string
	Err    error
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid options for plugin %s: %v", e.Plugin, e.Err)
}

func (e *OptionsError) Unwrap() error { return e.Err }
