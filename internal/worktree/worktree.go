// Package worktree wraps the git CLI for worktree discovery and lifecycle.
// Porcelain parsing is kept pure so it can be tested without git; command
// execution goes through an executor interface so the effect runner can be
// tested with a fake.
package worktree

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/calmren/atelier/internal/errors"
)

// CommandExecutor abstracts git invocation for testability.
type CommandExecutor interface {
	// Run executes a command in dir and returns combined output.
	Run(dir string, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

func (CLICommandExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Info describes one worktree of a repository.
type Info struct {
	Path   string
	Branch string
	IsMain bool
}

// Branch is one local or remote branch.
type Branch struct {
	Name      string
	IsCurrent bool
	IsRemote  bool
}

// Git performs worktree operations against repositories.
type Git struct {
	executor CommandExecutor
}

// NewGit creates a Git using the real CLI.
func NewGit() *Git {
	return &Git{executor: CLICommandExecutor{}}
}

// NewGitWithExecutor creates a Git with a custom executor, for tests.
func NewGitWithExecutor(executor CommandExecutor) *Git {
	return &Git{executor: executor}
}

// List returns all worktrees of the repository at repoPath. The first entry
// reported by git is the main checkout.
func (g *Git) List(repoPath string) ([]Info, error) {
	output, err := g.executor.Run(repoPath, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, gitError("list worktrees", repoPath, output, err)
	}
	return ParseWorktreeList(string(output)), nil
}

// Add creates a worktree for branch in a sibling directory of the
// repository. With newBranch set, the branch is created at HEAD; otherwise
// the existing branch is checked out.
func (g *Git) Add(repoPath, branch string, newBranch bool) (Info, error) {
	if branch == "" {
		return Info{}, errors.NewValidationError("branch is required").WithField("branch")
	}
	dest := worktreePathFor(repoPath, branch)
	args := []string{"worktree", "add"}
	if newBranch {
		args = append(args, "-b", branch, dest)
	} else {
		args = append(args, dest, branch)
	}
	output, err := g.executor.Run(repoPath, "git", args...)
	if err != nil {
		return Info{}, gitError("add worktree", repoPath, output, err)
	}
	return Info{Path: dest, Branch: branch}, nil
}

// Remove deletes the worktree at worktreePath. Force is always used: the
// caller has already confirmed, and a dirty linked tree must still go.
func (g *Git) Remove(repoPath, worktreePath string) error {
	output, err := g.executor.Run(repoPath, "git", "worktree", "remove", "--force", worktreePath)
	if err != nil {
		return gitError("remove worktree", repoPath, output, err)
	}
	return nil
}

// Branches lists local and remote branches.
func (g *Git) Branches(repoPath string) ([]Branch, error) {
	output, err := g.executor.Run(repoPath, "git", "branch", "--all", "--no-color")
	if err != nil {
		return nil, gitError("list branches", repoPath, output, err)
	}
	return ParseBranches(string(output)), nil
}

// IsRepo reports whether path is inside a git work tree.
func (g *Git) IsRepo(path string) bool {
	output, err := g.executor.Run(path, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(string(output)) == "true"
}

// HasChanges reports whether the worktree at path has uncommitted changes.
func (g *Git) HasChanges(path string) (bool, error) {
	output, err := g.executor.Run(path, "git", "status", "--porcelain")
	if err != nil {
		return false, gitError("check status", path, output, err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// ParseWorktreeList parses `git worktree list --porcelain` output. Entries
// are blank-line separated stanzas:
//
//	worktree /path/to/main
//	HEAD abc123
//	branch refs/heads/main
//
// A bare or detached stanza keeps an empty branch name.
func ParseWorktreeList(out string) []Info {
	var infos []Info
	var current *Info
	flush := func() {
		if current != nil && current.Path != "" {
			infos = append(infos, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			flush()
			current = &Info{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch ") && current != nil:
			current.Branch = shortRef(strings.TrimPrefix(line, "branch "))
		}
	}
	flush()
	if len(infos) > 0 {
		infos[0].IsMain = true
	}
	return infos
}

// ParseBranches parses `git branch --all` output. The current branch is
// starred; remote branches drop their remotes/ prefix. Symbolic refs and
// detached HEAD markers are skipped.
func ParseBranches(out string) []Branch {
	var branches []Branch
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "->") {
			continue
		}
		b := Branch{}
		if strings.HasPrefix(line, "* ") {
			b.IsCurrent = true
			line = strings.TrimPrefix(line, "* ")
		}
		if strings.HasPrefix(line, "remotes/") {
			b.IsRemote = true
			line = strings.TrimPrefix(line, "remotes/")
		}
		if strings.HasPrefix(line, "(") {
			continue
		}
		b.Name = line
		branches = append(branches, b)
	}
	return branches
}

// worktreePathFor places linked worktrees under a "<repo>-worktrees"
// sibling directory, one per branch, with path separators flattened.
func worktreePathFor(repoPath, branch string) string {
	safe := strings.ReplaceAll(branch, "/", "-")
	parent := filepath.Dir(repoPath)
	base := filepath.Base(repoPath)
	return filepath.Join(parent, fmt.Sprintf("%s-worktrees", base), safe)
}

func shortRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}

func gitError(op, repo string, output []byte, err error) error {
	return errors.NewResourceError(errors.CodeGitFailed, op, err).
		WithPath(repo).
		WithCommand("git").
		WithOutput(strings.TrimSpace(string(output)))
}
