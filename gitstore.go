package main

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// gitStore manages the manifest's git working tree: syncing to the remote
// before a run and keeping or discarding manifest changes afterwards.
type gitStore struct {
	repo *git.Repository
	wt   *git.Worktree
}

// openGitStore opens the repository containing dir.
func openGitStore(dir string) (*gitStore, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &gitStore{repo: repo, wt: wt}, nil
}

// Sync fetches the given remote and hard-resets the working tree, so the
// run starts from the published manifest state.
func (g *gitStore) Sync(remote string) error {
	err := g.repo.Fetch(&git.FetchOptions{RemoteName: remote})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	if err := g.wt.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// HasChanges reports whether the tracked file at path, relative to the
// repository root, differs from HEAD.
func (g *gitStore) HasChanges(path string) (bool, error) {
	status, err := g.wt.Status()
	if err != nil {
		return false, err
	}
	for file, fs := range status {
		if file == path && fs.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// Discard throws away uncommitted changes to tracked files. Untracked
// files, i.e. the downloaded firmware tree, stay in place.
func (g *gitStore) Discard() error {
	return g.wt.Checkout(&git.CheckoutOptions{Force: true})
}
