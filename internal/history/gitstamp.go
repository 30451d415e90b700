package history

import (
	"log/slog"

	git "github.com/go-git/go-git/v5"
)

// HeadCommit returns the HEAD commit hash of the repository containing dir,
// or "" when dir is not inside a git repository. Failures are logged at debug
// level only; commit stamping is best-effort.
func HeadCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository for commit stamping", "dir", dir, "error", err)
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		slog.Debug("Failed to resolve git HEAD", "dir", dir, "error", err)
		return ""
	}
	return head.Hash().String()
}
