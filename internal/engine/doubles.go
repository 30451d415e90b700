package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
)

// NoopTypesetter performs no typesetting; useful in tests or when only the
// orchestration around the engine is under inspection.
type NoopTypesetter struct{}

func (NoopTypesetter) Typeset(_ context.Context, dir, base string) error {
	slog.Debug("NoopTypesetter skipping typeset", "dir", dir, "base", base)
	return nil
}

// NoopBibliographer performs no bibliography resolution.
type NoopBibliographer struct{}

func (NoopBibliographer) Resolve(_ context.Context, dir, base string) error {
	slog.Debug("NoopBibliographer skipping resolve", "dir", dir, "base", base)
	return nil
}

// ScriptedTypesetter mimics a real typesetting engine for tests: it checks
// the source exists, writes the auxiliary and log intermediates, and writes
// the final output. FailOnPass makes a specific pass (1-based) fail; WithCitations
// records a citation entry in the aux file so the bibliography stage engages.
type ScriptedTypesetter struct {
	FailOnPass    int
	WithCitations bool

	mu     sync.Mutex
	Passes int // incremented per call, guarded by mu
}

// PassCount returns the number of completed calls, safe for concurrent use.
func (s *ScriptedTypesetter) PassCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Passes
}

func (s *ScriptedTypesetter) Typeset(_ context.Context, dir, base string) error {
	src := artifact.SourcePath(dir, base)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceMissing, src, err)
	}
	s.mu.Lock()
	s.Passes++
	pass := s.Passes
	s.mu.Unlock()
	if s.FailOnPass != 0 && pass == s.FailOnPass {
		return fmt.Errorf("%w: scripted failure on pass %d", ErrEngineFailed, pass)
	}

	aux := "\\relax\n"
	if s.WithCitations {
		aux += "\\citation{knuth1984}\n\\bibdata{refs}\n"
	}
	if err := os.WriteFile(artifact.AuxPath(dir, base), []byte(aux), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".log"), []byte("scripted log\n"), 0o644); err != nil {
		return err
	}
	content := fmt.Sprintf("%%PDF-1.5 scripted pass %d\n", pass)
	return os.WriteFile(artifact.FinalPath(dir, base), []byte(content), 0o644)
}

// ScriptedBibliographer writes a bbl file when the aux file exists, mimicking
// bibtex. FailAlways makes every invocation fail.
type ScriptedBibliographer struct {
	FailAlways bool
	Calls      int
}

func (s *ScriptedBibliographer) Resolve(_ context.Context, dir, base string) error {
	s.Calls++
	if s.FailAlways {
		return fmt.Errorf("%w: scripted bibliography failure", ErrEngineFailed)
	}
	aux := artifact.AuxPath(dir, base)
	if _, err := os.Stat(aux); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceMissing, aux, err)
	}
	bbl := filepath.Join(dir, base+".bbl")
	return os.WriteFile(bbl, []byte("\\begin{thebibliography}{1}\\end{thebibliography}\n"), 0o644)
}
