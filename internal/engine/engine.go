// Package engine abstracts the external programs a manuscript build drives:
// the typesetting engine and the bibliography engine. The binary
// implementations shell out; the test doubles in doubles.go let the pipeline
// run without either program installed.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrEngineNotFound indicates the engine executable was not detected on PATH.
	ErrEngineNotFound = errors.New("engine binary not found")
	// ErrEngineFailed indicates the engine returned a non-zero exit status.
	ErrEngineFailed = errors.New("engine execution failed")
	// ErrSourceMissing indicates the expected source file is absent.
	ErrSourceMissing = errors.New("source file missing")
)

// Typesetter runs one pass of the typesetting engine over <base>.tex inside
// dir, producing the rendered output and the auxiliary cross-reference files.
//
// Contract:
//
//	Typeset(ctx, dir, base) error -> perform one pass; non-nil error wraps
//	  ErrEngineNotFound, ErrSourceMissing, or ErrEngineFailed with captured
//	  engine output folded into the message.
type Typesetter interface {
	Typeset(ctx context.Context, dir, base string) error
}

// Bibliographer resolves citations recorded in <base>.aux into a formatted
// bibliography (<base>.bbl).
type Bibliographer interface {
	Resolve(ctx context.Context, dir, base string) error
}
