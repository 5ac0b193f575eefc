package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

var protectedBranches = map[string]struct{}{
	"main":       {},
	"master":     {},
	"develop":    {},
	"production": {},
	"staging":    {},
}

func isProtectedBranch(branch string) bool {
	_, ok := protectedBranches[strings.ToLower(strings.TrimSpace(branch))]
	return ok
}

// RepoOps covers the stage/commit/push/PR plumbing around the worktree
// lifecycle. All operations run against the context directory, which is
// usually a worktree rather than the primary checkout.
type RepoOps struct {
	ctx    RepoContext
	runner Runner
}

func NewRepoOps(ctx RepoContext) *RepoOps {
	return &RepoOps{ctx: ctx, runner: ctx.runner}
}

// Commit stages everything and commits. A clean tree is success, not an
// error, so repeated invocations are idempotent.
func (o *RepoOps) Commit(message string) error {
	o.runner.Git(o.ctx.Dir, "add", "-A")
	status := o.runner.Git(o.ctx.Dir, "status", "--porcelain")
	if status.OK && status.Output == "" {
		log.Info("no changes to commit")
		return nil
	}
	res := o.runner.Git(o.ctx.Dir, "commit", "-m", message)
	if !res.OK {
		return fmt.Errorf("failed to commit: %s", res.Output)
	}
	log.Info("changes committed")
	return nil
}

// Push refuses protected branches before any remote call. This is a
// guardrail with no override flag.
func (o *RepoOps) Push(branch string) error {
	if isProtectedBranch(branch) {
		return fmt.Errorf("cannot push directly to protected branch %q: create a feature branch and submit a PR instead", branch)
	}
	res := o.runner.Git(o.ctx.Dir, "push", "-u", "origin", branch)
	if !res.OK {
		return fmt.Errorf("failed to push: %s", res.Output)
	}
	log.Info("pushed branch", "branch", branch)
	return nil
}

// CreatePR opens a pull request for the current branch and returns its URL.
func (o *RepoOps) CreatePR(title string, body string) (string, error) {
	res := o.runner.GH(o.ctx.Dir, "pr", "create", "--title", title, "--body", body)
	if !res.OK {
		return "", fmt.Errorf("failed to create PR: %s", res.Output)
	}
	return res.Output, nil
}

// ChangedFiles lists files changed relative to the base branch, preferring
// the origin-qualified ref and falling back to the local one.
func (o *RepoOps) ChangedFiles(base string) []string {
	res := o.runner.Git(o.ctx.Dir, "diff", "--name-only", "origin/"+base+"...HEAD")
	if !res.OK {
		res = o.runner.Git(o.ctx.Dir, "diff", "--name-only", base+"...HEAD")
	}
	if !res.OK {
		return nil
	}
	files := make([]string, 0, 8)
	for _, line := range strings.Split(res.Output, "\n") {
		if f := strings.TrimSpace(line); f != "" {
			files = append(files, f)
		}
	}
	return files
}

func (o *RepoOps) HasChanges() bool {
	o.runner.Git(o.ctx.Dir, "add", "-A")
	res := o.runner.Git(o.ctx.Dir, "status", "--porcelain")
	return res.OK && strings.TrimSpace(res.Output) != ""
}
