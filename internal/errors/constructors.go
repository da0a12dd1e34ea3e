package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Plugin and hook errors

func PluginFailed(plugin, hook string, cause error) *BuildError {
	return Wrap(cause, CategoryPlugin, SeverityFatal, "plugin hook failed").
		WithContext("plugin", plugin).
		WithContext("hook", hook)
}

func PluginOptionsInvalid(plugin string, cause error) *BuildError {
	return Wrap(cause, CategoryPlugin, SeverityFatal, "plugin options invalid").
		WithContext("plugin", plugin)
}

// Build pipeline errors

func StageFailed(stage string, cause error) *BuildError {
	return Wrap(cause, CategorySource, SeverityFatal, "build stage failed").
		WithContext("stage", stage)
}

func RenderFailed(page string, cause error) *BuildError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page render failed").
		WithContext("page", page)
}

func WorkspaceError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Storage errors

func StorageError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryStorage, SeverityError, "event store operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
