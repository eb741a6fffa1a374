package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtray/internal/tabstray"
	"github.com/lotas/tabtray/internal/types"
)

// TrayInteractor receives the outcome of tray list use cases.
type TrayInteractor interface {
	NavigateToBrowser(tab *types.Tab) tea.Cmd
	TabRemoved(tabID string) tea.Cmd
}

// TabUseCases talk to the browser. Either may be nil in offline mode.
type TabUseCases struct {
	SelectTab func(tab *types.Tab) tea.Cmd
	RemoveTab func(tab *types.Tab) tea.Cmd
}

// TrayListConfig selects which local tabs a list shows.
type TrayListConfig struct {
	TabType types.BrowserTabType
}

// TrayList is the list for one local-tabs page. It forwards selection
// intents to the store and select/remove intents to the use cases.
type TrayList struct {
	Config     TrayListConfig
	Cursor     int
	Offset     int
	Width      int
	Height     int
	store      *tabstray.Store
	interactor TrayInteractor
	useCases   TabUseCases
}

func NewTrayList(cfg TrayListConfig, store *tabstray.Store, interactor TrayInteractor, useCases TabUseCases) TrayList {
	return TrayList{Config: cfg, store: store, interactor: interactor, useCases: useCases}
}

// Visible returns the session's tabs that match the list's configuration.
func (l TrayList) Visible(session *types.SessionData) []*types.Tab {
	if session == nil {
		return nil
	}
	var out []*types.Tab
	for _, t := range session.Tabs {
		if l.Config.TabType.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func (l *TrayList) current(tabs []*types.Tab) *types.Tab {
	if l.Cursor >= len(tabs) {
		l.Cursor = len(tabs) - 1
	}
	if l.Cursor < 0 {
		l.Cursor = 0
		return nil
	}
	return tabs[l.Cursor]
}

// Update handles a key for the list. state is the latest published store state.
func (l *TrayList) Update(msg tea.KeyMsg, session *types.SessionData, state tabstray.State) tea.Cmd {
	tabs := l.Visible(session)
	switch msg.String() {
	case "up", "k":
		if l.Cursor > 0 {
			l.Cursor--
		}
	case "down", "j":
		if l.Cursor < len(tabs)-1 {
			l.Cursor++
		}
	case " ":
		tab := l.current(tabs)
		if tab == nil {
			return nil
		}
		if state.IsSelected(tab.ID) {
			l.store.Dispatch(tabstray.RemoveSelectTab{Tab: *tab})
		} else {
			l.store.Dispatch(tabstray.AddSelectTab{Tab: *tab})
		}
	case "enter":
		if tab := l.current(tabs); tab != nil {
			return l.selectTab(tab)
		}
	case "x":
		if state.InSelectMode() {
			return l.removeSelected(state)
		}
		if tab := l.current(tabs); tab != nil {
			return l.removeTab(tab)
		}
	}
	return nil
}

// selectTab activates the tab in the browser, then hands over to the interactor.
func (l *TrayList) selectTab(tab *types.Tab) tea.Cmd {
	var cmds []tea.Cmd
	if l.useCases.SelectTab != nil {
		cmds = append(cmds, l.useCases.SelectTab(tab))
	}
	cmds = append(cmds, l.interactor.NavigateToBrowser(tab))
	return tea.Sequence(cmds...)
}

func (l *TrayList) removeTab(tab *types.Tab) tea.Cmd {
	var cmds []tea.Cmd
	if l.useCases.RemoveTab != nil {
		cmds = append(cmds, l.useCases.RemoveTab(tab))
	}
	cmds = append(cmds, l.interactor.TabRemoved(tab.ID))
	return tea.Sequence(cmds...)
}

func (l *TrayList) removeSelected(state tabstray.State) tea.Cmd {
	var cmds []tea.Cmd
	for _, t := range state.CurrentMode().SelectedTabs() {
		tab := t
		cmds = append(cmds, l.removeTab(&tab))
	}
	l.store.Dispatch(tabstray.ExitSelectMode{})
	return tea.Sequence(cmds...)
}

func (l *TrayList) View(session *types.SessionData, state tabstray.State) string {
	tabs := l.Visible(session)
	if len(tabs) == 0 {
		empty := "No open tabs"
		if l.Config.TabType == types.BrowserTabPrivate {
			empty = "No private tabs"
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 2).Render(empty)
	}
	return renderTabRows(tabs, l.Cursor, &l.Offset, l.Height, l.Width, state)
}

func renderTabRows(tabs []*types.Tab, cursor int, offset *int, height, width int, state tabstray.State) string {
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if height <= 0 {
		height = len(tabs)
	}
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}

	var b strings.Builder
	end := *offset + height
	if end > len(tabs) {
		end = len(tabs)
	}
	for i := *offset; i < end; i++ {
		tab := tabs[i]
		marker := "  "
		if state.InSelectMode() {
			marker = "[ ]"
			if state.IsSelected(tab.ID) {
				marker = "[x]"
			}
		}
		meta := hostOf(tab.URL)
		if tab.Device != "" {
			meta = tab.Device + " · " + meta
		}
		if age := formatAge(tab.LastAccessed); age != "" {
			meta += " · " + age
		}
		line := fmt.Sprintf("%s %s  %s", marker, truncate(titleOf(tab), width-len(meta)-8), dimStyle.Render(meta))
		switch {
		case i == cursor:
			line = cursorStyle.Render(line)
		case state.IsSelected(tab.ID):
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func titleOf(tab *types.Tab) string {
	if tab.Title != "" {
		return tab.Title
	}
	return tab.URL
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func formatAge(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(s string, n int) string {
	if n < 8 {
		n = 8
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
