// Package artifact classifies and manages the files a manuscript build
// produces and consumes: source files (never deleted), intermediates
// (removed by paper/clean), and the final rendered output (removed only by
// clean).
package artifact

import (
	"path/filepath"
	"strings"
)

// Class identifies how a file participates in the build lifecycle.
type Class string

const (
	ClassSource       Class = "source"
	ClassIntermediate Class = "intermediate"
	ClassFinal        Class = "final"
	ClassUnknown      Class = "unknown"
)

// sourceSuffixes are never removed by any target.
var sourceSuffixes = []string{".tex", ".md", ".bib"}

// intermediateSuffixes enumerate auxiliary files produced mid-build.
// Multi-dot suffixes (".synctex.gz") must be listed before their single-dot
// tails would match.
var intermediateSuffixes = []string{
	".synctex.gz",
	".fdb_latexmk",
	".aux",
	".log",
	".toc",
	".out",
	".bbl",
	".blg",
	".lof",
	".lot",
	".fls",
	".nav",
	".snm",
}

// finalSuffix is the rendered output extension.
const finalSuffix = ".pdf"

// Classify returns the lifecycle class of the given path based on its suffix.
func Classify(path string) Class {
	lower := strings.ToLower(path)
	for _, s := range intermediateSuffixes {
		if strings.HasSuffix(lower, s) {
			return ClassIntermediate
		}
	}
	if strings.HasSuffix(lower, finalSuffix) {
		return ClassFinal
	}
	for _, s := range sourceSuffixes {
		if strings.HasSuffix(lower, s) {
			return ClassSource
		}
	}
	return ClassUnknown
}

// SourcePath returns the expected typesettable source path for a base name.
func SourcePath(dir, base string) string {
	return filepath.Join(dir, base+".tex")
}

// MarkdownSourcePath returns the Markdown manuscript path for a base name.
func MarkdownSourcePath(dir, base string) string {
	return filepath.Join(dir, base+".md")
}

// AuxPath returns the cross-reference auxiliary file path for a base name.
func AuxPath(dir, base string) string {
	return filepath.Join(dir, base+".aux")
}

// FinalPath returns the rendered output path for a base name.
func FinalPath(dir, base string) string {
	return filepath.Join(dir, base+finalSuffix)
}

// IntermediatePaths returns every intermediate artifact path a build of the
// given base name may leave behind, whether or not the files exist.
func IntermediatePaths(dir, base string) []string {
	paths := make([]string, 0, len(intermediateSuffixes))
	for _, s := range intermediateSuffixes {
		paths = append(paths, filepath.Join(dir, base+s))
	}
	return paths
}
