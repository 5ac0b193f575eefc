package ui

import (
	"strings"
	"testing"
)

func TestPadOrTrim(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "pads short", in: "ab", width: 4, want: "ab  "},
		{name: "exact fit", in: "abcd", width: 4, want: "abcd"},
		{name: "trims with ellipsis", in: "abcdef", width: 4, want: "abc…"},
		{name: "width one", in: "abcdef", width: 1, want: "…"},
		{name: "zero width", in: "abc", width: 0, want: ""},
		{name: "multibyte runes", in: "héllo wörld", width: 6, want: "héllo…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadOrTrim(tt.in, tt.width); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatCIStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		failing string
		want    string
	}{
		{name: "passing", status: "passing", want: "✓ passing"},
		{name: "failing with names", status: "failing", failing: "build, lint", want: "✗ failing build, lint"},
		{name: "failing without names", status: "failing", want: "✗ failing"},
		{name: "pending", status: "pending", want: "… pending"},
		{name: "unknown", status: "unknown", want: "-"},
		{name: "empty", status: "", want: "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCIStatus(tt.status, tt.failing); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildPRRow(t *testing.T) {
	row := BuildPRRow(12, "acme/widgets", "feature/login", "Add login", "failing", "test", "OPEN")
	if row.NumberLabel != "#12" {
		t.Fatalf("unexpected number label %q", row.NumberLabel)
	}
	if row.CILabel != "✗ failing test" {
		t.Fatalf("unexpected CI label %q", row.CILabel)
	}
	if row.StateLabel != "open" {
		t.Fatalf("unexpected state label %q", row.StateLabel)
	}
	if row.Inactive {
		t.Fatal("open PR must not be inactive")
	}

	merged := BuildPRRow(13, "acme/widgets", "done", "Done", "passing", "", "MERGED")
	if !merged.Inactive {
		t.Fatal("merged PR must be inactive")
	}
}

func TestRenderPRSelectorEmptyStates(t *testing.T) {
	out := RenderPRSelector(nil, 0, true, "*", PlainStyles())
	if !strings.Contains(out, "Loading PRs...") {
		t.Fatalf("expected loading hint, got %q", out)
	}

	out = RenderPRSelector(nil, 0, false, "", PlainStyles())
	if !strings.Contains(out, "No open PRs.") {
		t.Fatalf("expected empty hint, got %q", out)
	}
}

func TestRenderPRSelectorListsRows(t *testing.T) {
	rows := []PRRow{
		{NumberLabel: "#1", Repo: "acme/widgets", Branch: "a", Title: "First", CILabel: "✓ passing", StateLabel: "open"},
		{NumberLabel: "#2", Repo: "acme/widgets", Branch: "b", Title: "Second", CILabel: "… pending", StateLabel: "open"},
	}
	out := RenderPRSelector(rows, 1, false, "", PlainStyles())
	if !strings.Contains(out, "#1") || !strings.Contains(out, "#2") {
		t.Fatalf("expected both rows, got %q", out)
	}
	if !strings.Contains(out, "PR") || !strings.Contains(out, "Branch") {
		t.Fatalf("expected header, got %q", out)
	}
}
