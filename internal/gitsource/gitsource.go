// Package gitsource keeps local mirrors of git-hosted capsule decks.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository if no mirror exists at localPath, otherwise
// pulls the latest changes into it.
func Sync(url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		return clone(url, localPath)
	case err != nil:
		return fmt.Errorf("checking mirror path %s: %w", localPath, err)
	default:
		return pull(localPath)
	}
}

func clone(url, localPath string) error {
	slog.Info("cloning deck repository", "url", url, "path", localPath)
	if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: url}); err != nil {
		return fmt.Errorf("cloning deck repo %s: %w", url, err)
	}
	return nil
}

func pull(localPath string) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("opening deck mirror at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree at %s: %w", localPath, err)
	}

	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Debug("deck mirror already up to date", "path", localPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("pulling deck mirror at %s: %w", localPath, err)
	}
	slog.Info("pulled deck repository", "path", localPath)
	return nil
}
