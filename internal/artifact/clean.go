package artifact

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// RemoveQuiet deletes path if it exists. A file that is already absent is a
// success; any other failure (permissions, IO) is returned so callers can
// decide whether to surface it. Source-class files are refused outright.
func RemoveQuiet(path string) error {
	if Classify(path) == ClassSource {
		return &fs.PathError{Op: "remove", Path: path, Err: errors.New("refusing to delete source file")}
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// CleanIntermediates removes every recognized intermediate artifact for the
// base name. Deletion failures other than absence are logged as warnings and
// collected; the first is returned so the paper target can report it.
func CleanIntermediates(dir, base string) error {
	var firstErr error
	for _, p := range IntermediatePaths(dir, base) {
		if err := RemoveQuiet(p); err != nil {
			slog.Warn("Failed to remove intermediate artifact", "path", p, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// CleanAll removes intermediates and the final output. Errors are logged but
// never returned: the clean target is best-effort and always succeeds.
func CleanAll(dir, base string) {
	if err := CleanIntermediates(dir, base); err != nil {
		slog.Warn("Intermediate cleanup incomplete", "base", base, "error", err)
	}
	final := FinalPath(dir, base)
	if err := RemoveQuiet(final); err != nil {
		slog.Warn("Failed to remove final output", "path", final, "error", err)
	}
}
