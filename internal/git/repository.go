package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNotARepository is returned when the path is not a git repository.
var ErrNotARepository = errors.New("not a git repository")

// ErrNothingStaged is returned by Commit when the index matches HEAD.
var ErrNothingStaged = errors.New("no staged changes; stage files with 'git add' first")

// Repository provides operations on a git repository.
type Repository struct {
	dir string
}

// NewRepository creates a new Repository for the given directory.
// If dir is empty, the current working directory is used.
// Returns ErrNotARepository if the directory is not within a git repository.
func NewRepository(dir string) (*Repository, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	r := &Repository{dir: dir}
	if _, err := r.run(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotARepository
	}
	return r, nil
}

// Dir returns the directory the repository was opened from.
func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return r.runWithInput(ctx, "", args...)
}

// runWithInput executes a git command with stdin and returns its trimmed
// output.
func (r *Repository) runWithInput(ctx context.Context, input string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// RootDir returns the top of the working tree.
func (r *Repository) RootDir(ctx context.Context) (string, error) {
	root, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("getting repository root: %w", err)
	}
	return root, nil
}

// GitDir returns the absolute path of the repository metadata directory.
// Worktrees get their own directory.
func (r *Repository) GitDir(ctx context.Context) (string, error) {
	dir, err := r.run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("getting git directory: %w", err)
	}
	return dir, nil
}

// CurrentBranch returns the name of the checked-out branch, or "HEAD" when
// detached.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// A repository without commits has no HEAD to resolve yet.
		branch, err = r.run(ctx, "symbolic-ref", "--short", "HEAD")
		if err != nil {
			return "", fmt.Errorf("getting current branch: %w", err)
		}
	}
	return branch, nil
}

// Commit records the staged changes with message.
func (r *Repository) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("commit message is empty")
	}
	changes, err := r.StagedChanges(ctx)
	if err != nil {
		return "", err
	}
	if changes.Empty() {
		return "", ErrNothingStaged
	}

	out, err := r.runWithInput(ctx, message, "commit", "-F", "-")
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return out, nil
}
