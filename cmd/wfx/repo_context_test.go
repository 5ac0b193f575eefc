package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRootDistinguishesMissingGit(t *testing.T) {
	r := newFakeRunner()
	r.fail("git rev-parse --show-toplevel", "git not installed")

	_, err := testContext(r).Root()
	if !errors.Is(err, errGitNotInstalled) {
		t.Fatalf("expected errGitNotInstalled, got %v", err)
	}
}

func TestRootOutsideRepository(t *testing.T) {
	r := newFakeRunner()
	r.fail("git rev-parse --show-toplevel", "fatal: not a git repository (or any of the parent directories): .git")

	_, err := testContext(r).Root()
	if !errors.Is(err, errNotInGitRepository) {
		t.Fatalf("expected errNotInGitRepository, got %v", err)
	}
}

func TestNameFallsBackWhenOutsideRepo(t *testing.T) {
	r := newFakeRunner()
	r.fail("git rev-parse --show-toplevel", "fatal: not a git repository")

	if got := testContext(r).Name(); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestNameUsesRootBasename(t *testing.T) {
	r := newFakeRunner()
	r.ok("git rev-parse --show-toplevel", "/home/dev/src/widgets")

	if got := testContext(r).Name(); got != "widgets" {
		t.Fatalf("expected widgets, got %q", got)
	}
}

func TestMainBranchFallsBackToMaster(t *testing.T) {
	r := newFakeRunner()
	r.fail("git rev-parse --verify main", "fatal: needed a single revision")

	if got := testContext(r).MainBranch(); got != "master" {
		t.Fatalf("expected master, got %q", got)
	}

	withMain := newFakeRunner()
	withMain.ok("git rev-parse --verify main", "abc123")
	if got := testContext(withMain).MainBranch(); got != "main" {
		t.Fatalf("expected main, got %q", got)
	}
}

func TestGitHubRepoParsesRemoteURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "ssh remote", url: "git@github.com:acme/widgets.git", want: "acme/widgets"},
		{name: "https remote", url: "https://github.com/acme/widgets.git", want: "acme/widgets"},
		{name: "https without suffix", url: "https://github.com/acme/widgets", want: "acme/widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			r.ok("git remote get-url origin", tt.url)

			got, err := testContext(r).GitHubRepo()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGitHubRepoRejectsNonGitHubRemote(t *testing.T) {
	r := newFakeRunner()
	r.ok("git remote get-url origin", "git@gitlab.com:acme/widgets.git")

	if _, err := testContext(r).GitHubRepo(); err == nil {
		t.Fatal("expected error for non-github remote")
	}
}

func TestGitHubRepoMissingRemote(t *testing.T) {
	r := newFakeRunner()
	r.fail("git remote get-url origin", "error: No such remote 'origin'")

	if _, err := testContext(r).GitHubRepo(); err == nil {
		t.Fatal("expected error when origin is missing")
	}
}

func TestCurrentBranch(t *testing.T) {
	r := newFakeRunner()
	r.ok("git rev-parse --abbrev-ref HEAD", "feature/login")

	if got := testContext(r).CurrentBranch(); got != "feature/login" {
		t.Fatalf("expected feature/login, got %q", got)
	}
}

func TestFindRepoDir(t *testing.T) {
	base := t.TempDir()
	repo := filepath.Join(base, "widgets")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir repo: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(base, "no-git-dir"), 0o755); err != nil {
		t.Fatalf("mkdir bare dir: %v", err)
	}

	dir, found := FindRepoDir("acme/widgets", []string{base})
	if !found || dir != repo {
		t.Fatalf("expected %q, got %q found=%v", repo, dir, found)
	}

	if _, found := FindRepoDir("acme/no-git-dir", []string{base}); found {
		t.Fatal("a directory without .git must not match")
	}
	if _, found := FindRepoDir("acme/absent", []string{base}); found {
		t.Fatal("expected no match for missing repo")
	}
	if _, found := FindRepoDir("", []string{base}); found {
		t.Fatal("expected no match for empty identifier")
	}
}
