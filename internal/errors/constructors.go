package errors

// Convenience functions for common error patterns

// Config errors

func ValidationFailed(field, reason string) *PaperkitError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *PaperkitError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func EngineError(engine string, cause error) *PaperkitError {
	return Wrap(cause, CategoryEngine, SeverityFatal, "engine invocation failed").
		WithContext("engine", engine)
}

func BibliographyError(cause error) *PaperkitError {
	return Wrap(cause, CategoryBibliography, SeverityFatal, "bibliography resolution failed")
}

func FileSystemError(operation string, cause error) *PaperkitError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Viewer errors

func ViewerError(command string, cause error) *PaperkitError {
	return Wrap(cause, CategoryViewer, SeverityError, "viewer launch failed").
		WithContext("command", command)
}

// History errors

func HistoryError(operation string, cause error) *PaperkitError {
	return Wrap(cause, CategoryHistory, SeverityWarning, "build history operation failed").
		WithContext("operation", operation)
}
