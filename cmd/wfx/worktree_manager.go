package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const worktreeBase = ".worktrees"

// WorktreeEntry is one isolated checkout, bound 1:1 to a branch. Detached
// checkouts have no branch.
type WorktreeEntry struct {
	Path   string `json:"path"`
	Branch string `json:"branch,omitempty"`
}

type WorktreeManager struct {
	ctx    RepoContext
	runner Runner
}

func NewWorktreeManager(ctx RepoContext) *WorktreeManager {
	return &WorktreeManager{ctx: ctx, runner: ctx.runner}
}

// worktreePathFor is a pure function of repository root and branch name.
// The ci-fix namespace keeps the existing-branch flow from colliding with
// worktrees created for new branches.
func worktreePathFor(repoRoot string, branch string, ciFix bool) string {
	name := strings.ReplaceAll(branch, "/", "-")
	if ciFix {
		name = "ci-fix-" + name
	}
	return filepath.Join(filepath.Dir(repoRoot), worktreeBase, filepath.Base(repoRoot), name)
}

// Create makes a worktree for a new branch tracked from origin/<mainline>.
// If the branch already exists, it retries as a plain add against the
// existing branch.
func (m *WorktreeManager) Create(branch string) (WorktreeEntry, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return WorktreeEntry{}, fmt.Errorf("branch name required")
	}
	root, err := m.ctx.Root()
	if err != nil {
		return WorktreeEntry{}, err
	}
	mainBranch := m.ctx.MainBranch()

	log.Info("fetching latest", "ref", "origin/"+mainBranch)
	if res := m.runner.Git(root, "fetch", "origin", mainBranch); !res.OK {
		// A stale local ref may still be usable.
		log.Warn("fetch failed, continuing with local ref", "output", res.Output)
	}

	target := worktreePathFor(root, branch, false)
	m.removeIfPresent(root, target)

	log.Info("creating worktree", "path", target, "branch", branch)
	res := m.runner.Git(root, "worktree", "add", "-b", branch, target, "origin/"+mainBranch)
	if !res.OK {
		res = m.runner.Git(root, "worktree", "add", target, branch)
	}
	if !res.OK {
		return WorktreeEntry{}, fmt.Errorf("failed to create worktree: %s", res.Output)
	}
	return WorktreeEntry{Path: target, Branch: branch}, nil
}

type checkoutStrategy struct {
	name  string
	apply func() CmdResult
}

// Checkout makes a worktree for a branch presumed to exist on origin (the
// ci-fix flow). Different repository states need different incantations, so
// the strategies run in order until one succeeds.
func (m *WorktreeManager) Checkout(branch string) (WorktreeEntry, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return WorktreeEntry{}, fmt.Errorf("branch name required")
	}
	root, err := m.ctx.Root()
	if err != nil {
		return WorktreeEntry{}, err
	}

	log.Info("fetching branch", "branch", branch)
	if res := m.runner.Git(root, "fetch", "origin", branch+":"+branch); !res.OK {
		m.runner.Git(root, "fetch", "origin")
	}

	target := worktreePathFor(root, branch, true)
	m.removeIfPresent(root, target)
	m.runner.Git(root, "worktree", "prune")

	strategies := []checkoutStrategy{
		{name: "local branch", apply: func() CmdResult {
			return m.runner.Git(root, "worktree", "add", target, branch)
		}},
		{name: "tracking branch from origin", apply: func() CmdResult {
			return m.runner.Git(root, "worktree", "add", "--track", "-b", branch, target, "origin/"+branch)
		}},
		{name: "detached from origin", apply: func() CmdResult {
			res := m.runner.Git(root, "worktree", "add", "--detach", target, "origin/"+branch)
			if res.OK {
				m.runner.Git(target, "checkout", "-B", branch)
				m.runner.Git(target, "branch", "--set-upstream-to", "origin/"+branch)
			}
			return res
		}},
	}

	var last CmdResult
	for _, s := range strategies {
		last = s.apply()
		if last.OK {
			log.Info("created worktree", "path", target, "branch", branch, "strategy", s.name)
			return WorktreeEntry{Path: target, Branch: branch}, nil
		}
		log.Debug("checkout strategy failed", "strategy", s.name, "output", last.Output)
	}
	return WorktreeEntry{}, fmt.Errorf("failed to create worktree: %s", last.Output)
}

// Remove forces removal regardless of uncommitted changes. Worktrees are
// disposable scratch space, never the primary working copy.
func (m *WorktreeManager) Remove(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("worktree path required")
	}
	root, err := m.ctx.Root()
	if err != nil {
		// Removal must still work from inside a worktree whose parent
		// linkage is ambiguous.
		root = m.ctx.Dir
	}
	res := m.runner.Git(root, "worktree", "remove", "--force", path)
	if !res.OK {
		return fmt.Errorf("failed to remove worktree: %s", res.Output)
	}
	log.Info("removed worktree", "path", path)
	return nil
}

func (m *WorktreeManager) List() ([]WorktreeEntry, error) {
	res := m.runner.Git(m.ctx.Dir, "worktree", "list", "--porcelain")
	if !res.OK {
		return nil, fmt.Errorf("failed to list worktrees: %s", res.Output)
	}
	return parseWorktrees(res.Output), nil
}

func parseWorktrees(output string) []WorktreeEntry {
	entries := make([]WorktreeEntry, 0, 4)
	var current *WorktreeEntry
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "worktree "):
			entries = append(entries, WorktreeEntry{Path: strings.TrimPrefix(line, "worktree ")})
			current = &entries[len(entries)-1]
		case strings.HasPrefix(line, "branch ") && current != nil:
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	return entries
}

func (m *WorktreeManager) removeIfPresent(root string, target string) {
	if !pathExists(target) {
		return
	}
	log.Info("removing existing worktree", "path", target)
	m.runner.Git(root, "worktree", "remove", "--force", target)
}
