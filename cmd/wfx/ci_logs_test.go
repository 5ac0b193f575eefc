package main

import (
	"strings"
	"testing"
)

func TestFailureLogsChecksFetchFails(t *testing.T) {
	r := newFakeRunner()
	r.fail("gh pr checks 8 --json name,state,link", "API rate limit exceeded")

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if !strings.HasPrefix(got, "Failed to get checks: ") {
		t.Fatalf("unexpected message %q", got)
	}
	if !strings.Contains(got, "rate limit") {
		t.Fatalf("expected diagnostic to be passed through, got %q", got)
	}
}

func TestFailureLogsUnparseableChecks(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link", "gobbledygook")

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if got != "Failed to parse checks data" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFailureLogsNoFailedChecks(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"build","state":"SUCCESS"},{"name":"test","state":"PENDING"}]`)

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if got != "No failed checks found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFailureLogsNamedCheckNotFailing(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"build","state":"FAILURE","link":""},{"name":"test","state":"SUCCESS"}]`)

	got := NewLogResolver(testContext(r)).FailureLogs(8, "test", "")
	if got != "Check 'test' not found or not failing" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFailureLogsFromRunLink(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"lint","state":"FAILURE","link":"https://github.com/acme/widgets/actions/runs/123/job/9"}]`)
	r.ok("gh run view 123 --json jobs",
		`{"jobs":[{"name":"lint-go","conclusion":"failure","databaseId":42},{"name":"lint-docs","conclusion":"success","databaseId":43}]}`)
	r.ok("gh run view --job 42 --log-failed", "golangci-lint: exit status 1")

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if !strings.Contains(got, "=== lint - lint-go ===") {
		t.Fatalf("expected check/job header, got %q", got)
	}
	if !strings.Contains(got, "golangci-lint: exit status 1") {
		t.Fatalf("expected log body, got %q", got)
	}
	if r.called("gh run view --job 43 --log-failed") {
		t.Fatalf("must not pull logs for passing jobs, calls: %v", r.calls)
	}
	if r.called("gh run list --branch pr/8 --json databaseId,conclusion,name") {
		t.Fatalf("fallback must not run once logs were found, calls: %v", r.calls)
	}
}

func TestFailureLogsFallsBackToRunList(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"ancient-ci","state":"ERROR","link":"https://example.com/details/555"}]`)
	r.ok("gh run list --branch pr/8 --json databaseId,conclusion,name",
		`[{"name":"CI","conclusion":"failure","databaseId":900},{"name":"CI","conclusion":"success","databaseId":901}]`)
	r.ok("gh run view 900 --log-failed", "make: *** [test] Error 2")

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if !strings.Contains(got, "=== CI ===") {
		t.Fatalf("expected run header, got %q", got)
	}
	if !strings.Contains(got, "Error 2") {
		t.Fatalf("expected log body, got %q", got)
	}
}

func TestFailureLogsFallbackCapsAtThreeRuns(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"ci","state":"FAILURE","link":""}]`)
	r.ok("gh run list --branch pr/8 --json databaseId,conclusion,name",
		`[{"name":"CI","conclusion":"failure","databaseId":1},
		  {"name":"CI","conclusion":"failure","databaseId":2},
		  {"name":"CI","conclusion":"failure","databaseId":3},
		  {"name":"CI","conclusion":"failure","databaseId":4}]`)
	for _, id := range []string{"1", "2", "3"} {
		r.ok("gh run view "+id+" --log-failed", "boom "+id)
	}

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if !strings.Contains(got, "boom 3") {
		t.Fatalf("expected third run's logs, got %q", got)
	}
	if r.called("gh run view 4 --log-failed") {
		t.Fatalf("expected at most three runs, calls: %v", r.calls)
	}
}

func TestFailureLogsApologyWhenNothingRetrievable(t *testing.T) {
	r := newFakeRunner()
	r.ok("gh pr checks 8 --json name,state,link",
		`[{"name":"ci","state":"FAILURE","link":""}]`)
	r.fail("gh run list --branch pr/8 --json databaseId,conclusion,name", "no runs")

	got := NewLogResolver(testContext(r)).FailureLogs(8, "", "")
	if got != logsUnavailableMessage {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRunIDFromLink(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		wantID string
		wantOK bool
	}{
		{
			name:   "run link with job suffix",
			link:   "https://github.com/acme/widgets/actions/runs/123/job/456",
			wantID: "123",
			wantOK: true,
		},
		{
			name:   "bare run link",
			link:   "https://github.com/acme/widgets/actions/runs/789",
			wantID: "789",
			wantOK: true,
		},
		{
			name: "external status link",
			link: "https://ci.example.com/details/555",
		},
		{
			name: "empty link",
		},
		{
			name: "marker with no id",
			link: "https://github.com/acme/widgets/actions/runs/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, matched := runIDFromLink(tt.link)
			if matched != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, matched)
			}
			if id != tt.wantID {
				t.Fatalf("expected id %q, got %q", tt.wantID, id)
			}
		})
	}
}
