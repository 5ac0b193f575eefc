package main

import (
	"strings"
	"testing"
)

func TestIsProtectedBranch(t *testing.T) {
	tests := []struct {
		branch string
		want   bool
	}{
		{"main", true},
		{"master", true},
		{"develop", true},
		{"production", true},
		{"staging", true},
		{"MAIN", true},
		{" main ", true},
		{"feature/login", false},
		{"main-backup", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isProtectedBranch(tt.branch); got != tt.want {
			t.Fatalf("isProtectedBranch(%q) = %v, want %v", tt.branch, got, tt.want)
		}
	}
}

func TestPushRefusesProtectedBranches(t *testing.T) {
	for _, branch := range []string{"main", "master", "develop", "production", "staging", "Main"} {
		r := newFakeRunner()
		err := NewRepoOps(testContext(r)).Push(branch)
		if err == nil {
			t.Fatalf("expected refusal for %q", branch)
		}
		if !strings.Contains(err.Error(), "protected branch") {
			t.Fatalf("unexpected error for %q: %v", branch, err)
		}
		for _, call := range r.calls {
			if strings.HasPrefix(call, "git push") {
				t.Fatalf("push must be refused before any remote call, calls: %v", r.calls)
			}
		}
	}
}

func TestPushFeatureBranch(t *testing.T) {
	r := newFakeRunner()
	r.ok("git push -u origin feature/login", "")

	if err := NewRepoOps(testContext(r)).Push("feature/login"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPushSurfacesGitFailure(t *testing.T) {
	r := newFakeRunner()
	r.fail("git push -u origin feature/login", "remote: permission denied")

	err := NewRepoOps(testContext(r)).Push("feature/login")
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected push diagnostic, got %v", err)
	}
}

func TestCommitCleanTreeIsSuccess(t *testing.T) {
	r := newFakeRunner()
	r.ok("git add -A", "")
	r.ok("git status --porcelain", "")

	if err := NewRepoOps(testContext(r)).Commit("noop"); err != nil {
		t.Fatalf("clean tree must not be an error: %v", err)
	}
	for _, call := range r.calls {
		if strings.HasPrefix(call, "git commit") {
			t.Fatalf("no commit expected on a clean tree, calls: %v", r.calls)
		}
	}
}

func TestCommitStagesEverythingFirst(t *testing.T) {
	r := newFakeRunner()
	r.ok("git add -A", "")
	r.ok("git status --porcelain", "M main.go")
	r.ok("git commit -m fix: handle empty input", "")

	if err := NewRepoOps(testContext(r)).Commit("fix: handle empty input"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls[0] != "git add -A" {
		t.Fatalf("expected staging before status, calls: %v", r.calls)
	}
}

func TestCreatePRReturnsURL(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr create --title Add login --body Adds the login flow",
		"https://github.com/acme/widgets/pull/12")

	url, err := NewRepoOps(testContext(r)).CreatePR("Add login", "Adds the login flow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://github.com/acme/widgets/pull/12" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestChangedFilesPrefersOriginRef(t *testing.T) {
	r := newFakeRunner()
	r.ok("git diff --name-only origin/main...HEAD", "cmd/app/main.go\ninternal/store/db.go\n")

	files := NewRepoOps(testContext(r)).ChangedFiles("main")
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if r.called("git diff --name-only main...HEAD") {
		t.Fatalf("local fallback must not run when origin ref works, calls: %v", r.calls)
	}
}

func TestChangedFilesFallsBackToLocalRef(t *testing.T) {
	r := newFakeRunner()
	r.fail("git diff --name-only origin/main...HEAD", "unknown revision origin/main")
	r.ok("git diff --name-only main...HEAD", "README.md")

	files := NewRepoOps(testContext(r)).ChangedFiles("main")
	if len(files) != 1 || files[0] != "README.md" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestHasChanges(t *testing.T) {
	r := newFakeRunner()
	r.ok("git add -A", "")
	r.ok("git status --porcelain", "?? new.go")
	if !NewRepoOps(testContext(r)).HasChanges() {
		t.Fatal("expected dirty tree")
	}

	clean := newFakeRunner()
	clean.ok("git add -A", "")
	clean.ok("git status --porcelain", "")
	if NewRepoOps(testContext(clean)).HasChanges() {
		t.Fatal("expected clean tree")
	}
}
