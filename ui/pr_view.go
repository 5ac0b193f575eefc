package ui

import (
	"fmt"
	"strings"
)

type PRRow struct {
	NumberLabel string
	Repo        string
	Branch      string
	Title       string
	CILabel     string
	StateLabel  string
	Inactive    bool
}

func RenderPRSelector(rows []PRRow, cursor int, loading bool, loadingGlyph string, styles Styles) string {
	const (
		numberWidth = 8
		repoWidth   = 28
		branchWidth = 32
		titleWidth  = 56
		ciWidth     = 22
		stateWidth  = 10
	)
	var b strings.Builder
	header := formatPRLine("PR", "Repo", "Branch", "Title", "CI", "State", numberWidth, repoWidth, branchWidth, titleWidth, ciWidth, stateWidth)
	b.WriteString(styles.Header("  " + header))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("  ")
		if loading {
			b.WriteString(styles.Secondary(loadingGlyph + " Loading PRs..."))
		} else {
			b.WriteString(styles.Disabled("No open PRs."))
		}
		return b.String()
	}
	for i, row := range rows {
		rowStyle := styles.Normal
		rowSelectedStyle := styles.Selected
		if row.Inactive {
			rowStyle = styles.Disabled
			rowSelectedStyle = styles.DisabledSelected
		}
		line := formatPRLine(
			row.NumberLabel,
			row.Repo,
			row.Branch,
			row.Title,
			row.CILabel,
			row.StateLabel,
			numberWidth,
			repoWidth,
			branchWidth,
			titleWidth,
			ciWidth,
			stateWidth,
		)
		if i == cursor {
			b.WriteString("  " + rowSelectedStyle(line))
		} else {
			b.WriteString("  " + rowStyle(line))
		}
		b.WriteString("\n")
	}
	if loading {
		b.WriteString("  ")
		b.WriteString(styles.Secondary(loadingGlyph + " Refreshing..."))
	}
	return b.String()
}

func formatPRLine(number string, repo string, branch string, title string, ci string, state string, numberWidth int, repoWidth int, branchWidth int, titleWidth int, ciWidth int, stateWidth int) string {
	return PadOrTrim(number, numberWidth) + " " +
		PadOrTrim(repo, repoWidth) + " " +
		PadOrTrim(branch, branchWidth) + " " +
		PadOrTrim(title, titleWidth) + " " +
		PadOrTrim(ci, ciWidth) + " " +
		PadOrTrim(state, stateWidth)
}

// BuildPRRow formats one PR for the selector. ciStatus is one of
// passing/failing/pending/unknown; failingNames annotates the failing
// state with the offending check names.
func BuildPRRow(number int, repo string, branch string, title string, ciStatus string, failingNames string, state string) PRRow {
	return PRRow{
		NumberLabel: fmt.Sprintf("#%d", number),
		Repo:        repo,
		Branch:      branch,
		Title:       title,
		CILabel:     FormatCIStatus(ciStatus, failingNames),
		StateLabel:  strings.TrimSpace(strings.ToLower(state)),
		Inactive:    isInactiveState(state),
	}
}

func FormatCIStatus(ciStatus string, failingNames string) string {
	switch strings.TrimSpace(ciStatus) {
	case "passing":
		return "✓ passing"
	case "failing":
		names := strings.TrimSpace(failingNames)
		if names != "" {
			return "✗ failing " + names
		}
		return "✗ failing"
	case "pending":
		return "… pending"
	default:
		return "-"
	}
}

func isInactiveState(state string) bool {
	s := strings.TrimSpace(strings.ToLower(state))
	return s == "closed" || s == "merged"
}
