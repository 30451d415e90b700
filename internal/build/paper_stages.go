package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
	"git.home.luguber.info/inful/paperkit/internal/engine"
	perrors "git.home.luguber.info/inful/paperkit/internal/errors"
	"git.home.luguber.info/inful/paperkit/internal/markdown"
)

// Stage names, shared between the pipeline, metrics labels, and history rows.
const (
	StageCheckSource       = "check_source"
	StagePreprocess        = "preprocess_markdown"
	StageTypesetInitial    = "typeset_initial"
	StageBibliography      = "bibliography"
	StageTypesetRefs       = "typeset_refs"
	StageVerifyOutput      = "verify_output"
	StageCleanIntermediate = "cleanup_intermediates"
)

// paperStages is the ordered step list of the paper target.
func paperStages() []namedStage {
	return []namedStage{
		{StageCheckSource, stageCheckSource},
		{StagePreprocess, stagePreprocessMarkdown},
		{StageTypesetInitial, stageTypesetInitial},
		{StageBibliography, stageBibliography},
		{StageTypesetRefs, stageTypesetRefs},
		{StageVerifyOutput, stageVerifyOutput},
		{StageCleanIntermediate, stageCleanupIntermediates},
	}
}

// stageCheckSource verifies a manuscript source exists. A Markdown manuscript
// is accepted and flagged for preprocessing; no source at all is fatal.
func stageCheckSource(_ context.Context, bs *BuildState) error {
	tex := artifact.SourcePath(bs.Dir, bs.BaseName)
	md := artifact.MarkdownSourcePath(bs.Dir, bs.BaseName)

	if _, err := os.Stat(md); err == nil {
		bs.UseMarkdown = true
		return nil
	}
	if _, err := os.Stat(tex); err != nil {
		return newFatalStageError(StageCheckSource,
			fmt.Errorf("%w: neither %s nor %s exists", engine.ErrSourceMissing, tex, md))
	}
	return nil
}

// stagePreprocessMarkdown converts <base>.md into <base>.tex when the
// manuscript is written in Markdown.
func stagePreprocessMarkdown(_ context.Context, bs *BuildState) error {
	if !bs.UseMarkdown {
		return nil
	}
	if err := markdown.Preprocess(bs.Dir, bs.BaseName); err != nil {
		return newFatalStageError(StagePreprocess, err)
	}
	return nil
}

// stageTypesetInitial runs the first typeset pass, producing the auxiliary
// cross-reference data the bibliography step consumes.
func stageTypesetInitial(ctx context.Context, bs *BuildState) error {
	if err := bs.Typesetter.Typeset(ctx, bs.Dir, bs.BaseName); err != nil {
		return newFatalStageError(StageTypesetInitial, perrors.EngineError(bs.Config.Engines.Typeset, err))
	}
	bs.recordPassChecksum()
	bs.HasCitations = auxHasCitations(bs.Dir, bs.BaseName)
	return nil
}

// stageBibliography resolves citations. When the aux file records none, the
// step is skipped with a warning so uncited manuscripts build without a
// bibliography engine installed.
func stageBibliography(ctx context.Context, bs *BuildState) error {
	if !bs.HasCitations {
		bs.Report.BibliographySkipped = true
		return newWarnStageError(StageBibliography, fmt.Errorf("no citations recorded in %s", artifact.AuxPath(bs.Dir, bs.BaseName)))
	}
	if err := bs.Bibliographer.Resolve(ctx, bs.Dir, bs.BaseName); err != nil {
		return newFatalStageError(StageBibliography, perrors.BibliographyError(err))
	}
	return nil
}

// stageTypesetRefs runs the remaining fixed-convention passes: the second
// pass picks up the resolved bibliography, the third stabilizes
// cross-references shifted by citation insertion. The pass count is a
// convention, not a computed fixed point; the report flags instability when
// the final pass still changed the aux data.
func stageTypesetRefs(ctx context.Context, bs *BuildState) error {
	for pass := 2; pass <= bs.Config.Engines.Passes; pass++ {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageTypesetRefs, ctx.Err())
		default:
		}
		if err := bs.Typesetter.Typeset(ctx, bs.Dir, bs.BaseName); err != nil {
			return newFatalStageError(StageTypesetRefs,
				perrors.EngineError(bs.Config.Engines.Typeset, fmt.Errorf("pass %d: %w", pass, err)))
		}
		bs.recordPassChecksum()
	}

	sums := bs.Report.PassChecksums
	if n := len(sums); n >= 2 && sums[n-1] != sums[n-2] {
		bs.Report.Stable = false
		slog.Warn("Cross-references may not have stabilized; consider another pass",
			"base", bs.BaseName, "passes", bs.Config.Engines.Passes)
	}
	return nil
}

// stageVerifyOutput confirms the final output exists.
func stageVerifyOutput(_ context.Context, bs *BuildState) error {
	final := artifact.FinalPath(bs.Dir, bs.BaseName)
	if _, err := os.Stat(final); err != nil {
		return newFatalStageError(StageVerifyOutput,
			perrors.BuildFailed(StageVerifyOutput, fmt.Errorf("rendered output missing: %w", err)))
	}
	bs.Report.OutputPath = final
	return nil
}

// stageCleanupIntermediates removes auxiliary files left by the passes.
// Failures here degrade the build to a warning; the output already exists.
func stageCleanupIntermediates(_ context.Context, bs *BuildState) error {
	if bs.Config.Build.KeepIntermediates {
		return nil
	}
	if err := artifact.CleanIntermediates(bs.Dir, bs.BaseName); err != nil {
		return newWarnStageError(StageCleanIntermediate, perrors.FileSystemError("remove", err))
	}
	return nil
}

// recordPassChecksum appends the current aux checksum to the report.
func (bs *BuildState) recordPassChecksum() {
	sum := auxChecksum(bs.Dir, bs.BaseName)
	bs.Report.PassChecksums = append(bs.Report.PassChecksums, sum)
}

// auxChecksum hashes the aux file; an absent file hashes to "".
func auxChecksum(dir, base string) string {
	data, err := os.ReadFile(artifact.AuxPath(dir, base))
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// auxHasCitations reports whether the aux file records \citation entries.
func auxHasCitations(dir, base string) bool {
	data, err := os.ReadFile(artifact.AuxPath(dir, base))
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte(`\citation{`))
}
