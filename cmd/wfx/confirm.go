package main

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func wfxHuhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(lipgloss.Color("#7D56F4"))
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

// confirmRemoval asks before tearing down a worktree when --yes was not
// passed. Removal is forced once confirmed, uncommitted changes included.
func confirmRemoval(path string) (bool, error) {
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Remove worktree?").
			Description(path).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	)).WithTheme(wfxHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
