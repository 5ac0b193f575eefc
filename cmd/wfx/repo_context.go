package main

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
)

var errGitNotInstalled = errors.New("git not installed")
var errNotInGitRepository = errors.New("not in a git repository")

var githubRemotePattern = regexp.MustCompile(`github\.com[:/]([^/]+/[^/]+?)(?:\.git)?$`)

// RepoContext pins every operation to an explicit directory instead of the
// process working directory. Nothing derived from it is cached: branch
// switches and worktree add/remove can change the answers between calls.
type RepoContext struct {
	Dir    string
	runner Runner
}

func NewRepoContext(dir string, runner Runner) RepoContext {
	if strings.TrimSpace(dir) == "" {
		dir, _ = os.Getwd()
	}
	if runner == nil {
		runner = execRunner{}
	}
	return RepoContext{Dir: dir, runner: runner}
}

// Root resolves the top of the working copy this context points into.
func (c RepoContext) Root() (string, error) {
	res := c.runner.Git(c.Dir, "rev-parse", "--show-toplevel")
	if !res.OK || strings.TrimSpace(res.Output) == "" {
		if strings.Contains(res.Output, "not installed") {
			return "", errGitNotInstalled
		}
		return "", errNotInGitRepository
	}
	return res.Output, nil
}

func (c RepoContext) Name() string {
	root, err := c.Root()
	if err != nil {
		return "unknown"
	}
	return filepath.Base(root)
}

// MainBranch detects the canonical mainline for this repository. There is
// no universal default, so it is probed per repository every time.
func (c RepoContext) MainBranch() string {
	if c.runner.Git(c.Dir, "rev-parse", "--verify", "main").OK {
		return "main"
	}
	return "master"
}

func (c RepoContext) CurrentBranch() string {
	res := c.runner.Git(c.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	if !res.OK {
		return ""
	}
	return res.Output
}

// GitHubRepo returns the owner/name identifier parsed from the origin
// remote. go-git answers this without spawning a process, but its
// linked-worktree support is incomplete, so failures fall back to the git
// binary.
func (c RepoContext) GitHubRepo() (string, error) {
	url, err := c.originURL()
	if err != nil {
		res := c.runner.Git(c.Dir, "remote", "get-url", "origin")
		if !res.OK {
			return "", errors.New("origin remote missing")
		}
		url = res.Output
	}
	match := githubRemotePattern.FindStringSubmatch(strings.TrimSpace(url))
	if match == nil {
		return "", errors.New("origin remote is not a github repository")
	}
	return match[1], nil
}

func (c RepoContext) originURL() (string, error) {
	repo, err := git.PlainOpenWithOptions(c.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", err
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", errors.New("origin remote has no URL")
	}
	return cfg.URLs[0], nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindRepoDir locates a local checkout of owner/name under the configured
// search paths.
func FindRepoDir(ownerRepo string, searchPaths []string) (string, bool) {
	ownerRepo = strings.TrimSpace(ownerRepo)
	if ownerRepo == "" {
		return "", false
	}
	parts := strings.Split(ownerRepo, "/")
	repoName := parts[len(parts)-1]
	for _, base := range searchPaths {
		candidate := filepath.Join(base, repoName)
		info, err := os.Stat(candidate)
		if err != nil || !info.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(candidate, ".git")); err == nil {
			return candidate, true
		}
	}
	return "", false
}
