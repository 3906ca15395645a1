package ingest

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// RepoHead identifies the checked-out state of an analyzed repository.
type RepoHead struct {
	Commit string
	Branch string
}

// ResolveHead reads the HEAD commit and branch of a local repository so
// callers can default the collection's commit and branch from the working
// copy instead of requiring them on the command line. Branch is empty on
// a detached HEAD.
func ResolveHead(repoPath string) (RepoHead, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return RepoHead{}, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}
	head, err := repo.Head()
	if err != nil {
		return RepoHead{}, fmt.Errorf("failed to resolve HEAD of %s: %w", repoPath, err)
	}
	info := RepoHead{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}
