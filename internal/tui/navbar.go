package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtray/internal/tabstray"
)

func renderNavbar(state tabstray.State, counts [3]int, profileName string, width int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	profileStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	modeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	var tabs string
	for i, page := range tabstray.Pages() {
		if i > 0 {
			tabs += inactiveStyle.Render(" │ ")
		}
		countSuffix := ""
		if counts[i] > 0 {
			countSuffix = fmt.Sprintf(" (%d)", counts[i])
		}
		if page == state.SelectedPage {
			tabs += activeStyle.Render(page.String() + countSuffix)
		} else {
			tabs += inactiveStyle.Render(page.String()) + countStyle.Render(countSuffix)
		}
	}

	left := " " + tabs
	if sel, ok := state.CurrentMode().(tabstray.Select); ok {
		left += "   " + modeStyle.Render(fmt.Sprintf("SELECT %d", sel.Len()))
	}
	if state.Syncing {
		left += "   " + countStyle.Render("syncing…")
	}

	profile := profileStyle.Render("Profile: " + profileName)
	gap := width - lipgloss.Width(left) - lipgloss.Width(profile) - 2
	if gap < 1 {
		gap = 1
	}
	padding := lipgloss.NewStyle().Width(gap)

	return left + padding.Render("") + profile + " "
}
