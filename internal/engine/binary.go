package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
)

// BinaryTypesetter invokes a typesetting binary (pdflatex, xelatex, ...)
// present on PATH.
type BinaryTypesetter struct {
	Command string
	Args    []string
}

// NewBinaryTypesetter creates a typesetter for the given binary and
// per-invocation arguments.
func NewBinaryTypesetter(command string, args []string) *BinaryTypesetter {
	return &BinaryTypesetter{Command: command, Args: args}
}

func (b *BinaryTypesetter) Typeset(ctx context.Context, dir, base string) error {
	if _, err := exec.LookPath(b.Command); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineNotFound, err)
	}

	src := artifact.SourcePath(dir, base)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceMissing, src, err)
	}

	args := append(append([]string{}, b.Args...), base+".tex")
	cmd := exec.CommandContext(ctx, b.Command, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking typesetting engine", "command", b.Command, "dir", dir, "base", base)

	err := cmd.Run()
	logEngineOutput(b.Command, stdout.String(), stderr.String())
	if err != nil {
		return wrapEngineFailure(b.Command, err, stdout.String(), stderr.String())
	}
	return nil
}

// BinaryBibliographer invokes a bibliography binary (bibtex, biber) on PATH.
type BinaryBibliographer struct {
	Command string
}

// NewBinaryBibliographer creates a bibliographer for the given binary.
func NewBinaryBibliographer(command string) *BinaryBibliographer {
	return &BinaryBibliographer{Command: command}
}

func (b *BinaryBibliographer) Resolve(ctx context.Context, dir, base string) error {
	if _, err := exec.LookPath(b.Command); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineNotFound, err)
	}

	aux := artifact.AuxPath(dir, base)
	if _, err := os.Stat(aux); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceMissing, aux, err)
	}

	cmd := exec.CommandContext(ctx, b.Command, base)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking bibliography engine", "command", b.Command, "dir", dir, "base", base)

	err := cmd.Run()
	logEngineOutput(b.Command, stdout.String(), stderr.String())
	if err != nil {
		return wrapEngineFailure(b.Command, err, stdout.String(), stderr.String())
	}
	return nil
}

// logEngineOutput surfaces captured engine output when non-empty so failures
// can be diagnosed from the log alone.
func logEngineOutput(command, outStr, errStr string) {
	if outStr != "" {
		slog.Debug("engine stdout", "command", command, "output", outStr)
	}
	if errStr != "" {
		slog.Warn("engine stderr", "command", command, "error_output", errStr)
	}
}

// wrapEngineFailure folds captured output into the returned error. Engines
// write diagnostics to either stream, so both are included.
func wrapEngineFailure(command string, err error, outStr, errStr string) error {
	output := errStr
	if output == "" {
		output = outStr
	} else if outStr != "" {
		output = outStr + "\n" + errStr
	}
	if output != "" {
		return fmt.Errorf("%w: %s: %w: %s", ErrEngineFailed, command, err, output)
	}
	return fmt.Errorf("%w: %s: %w", ErrEngineFailed, command, err)
}
