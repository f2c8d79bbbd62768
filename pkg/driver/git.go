package driver

import (
	"fmt"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ChangedFiles returns the repo-relative paths of every file that differs
// from sinceRev in the current worktree (§4.8): committed changes between
// sinceRev and HEAD, unioned with whatever the worktree itself still has
// uncommitted. Grounded on the teacher's git-backed dependency fetcher
// (cmd/able/deps_resolver.go), which opens repositories and resolves
// revisions with the same go-git calls used here.
func ChangedFiles(repoPath, sinceRev string) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("driver: open repository %s: %w", repoPath, err)
	}

	sinceHash, err := repo.ResolveRevision(plumbing.Revision(sinceRev))
	if err != nil {
		return nil, fmt.Errorf("driver: resolve revision %s: %w", sinceRev, err)
	}
	sinceTree, err := treeAt(repo, *sinceHash)
	if err != nil {
		return nil, fmt.Errorf("driver: load tree at %s: %w", sinceRev, err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("driver: resolve HEAD: %w", err)
	}
	headTree, err := treeAt(repo, headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("driver: load tree at HEAD: %w", err)
	}

	changed := make(map[string]struct{})

	changes, err := sinceTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("driver: diff %s..HEAD: %w", sinceRev, err)
	}
	for _, change := range changes {
		if change.From.Name != "" {
			changed[change.From.Name] = struct{}{}
		}
		if change.To.Name != "" {
			changed[change.To.Name] = struct{}{}
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("driver: open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("driver: worktree status: %w", err)
	}
	for path, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
			continue
		}
		changed[path] = struct{}{}
	}

	out := make([]string, 0, len(changed))
	for path := range changed {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func treeAt(repo *git.Repository, hash plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}
