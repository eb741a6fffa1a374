// Package tabstray holds the tab tray UI state and the store that serializes
// every change to it.
package tabstray

import "github.com/lotas/tabtray/internal/types"

// Page is one of the tray's pages. Exactly one is active at a time.
type Page int

const (
	NormalTabs Page = iota
	PrivateTabs
	SyncedTabs
)

var pageNames = []string{"Tabs", "Private", "Synced"}

func (p Page) String() string {
	if p < 0 || int(p) >= len(pageNames) {
		return "Unknown"
	}
	return pageNames[p]
}

// Position returns the page's index in the tray's pager.
func (p Page) Position() int { return int(p) }

// PageFromPosition maps a pager index back to a Page. Out of range
// positions fall back to NormalTabs.
func PageFromPosition(pos int) Page {
	if pos < 0 || pos >= len(pageNames) {
		return NormalTabs
	}
	return Page(pos)
}

// Pages lists every page in pager order.
func Pages() []Page {
	return []Page{NormalTabs, PrivateTabs, SyncedTabs}
}

// Mode is either Normal or Select. The set of implementations is closed.
type Mode interface {
	// SelectedTabs returns the selected tabs in selection order.
	// It is always empty in Normal mode.
	SelectedTabs() []types.Tab
	isMode()
}

// Normal is the default mode: no multi-selection.
type Normal struct{}

func (Normal) SelectedTabs() []types.Tab { return nil }
func (Normal) isMode()                   {}

// Select is multi-select mode. The selection is a set keyed on tab ID and
// is never modified after construction.
type Select struct {
	tabs []types.Tab
}

// NewSelect builds a Select mode holding tabs, dropping duplicate IDs.
func NewSelect(tabs ...types.Tab) Select {
	var s Select
	for _, t := range tabs {
		s = s.with(t)
	}
	return s
}

func (s Select) SelectedTabs() []types.Tab {
	out := make([]types.Tab, len(s.tabs))
	copy(out, s.tabs)
	return out
}

func (Select) isMode() {}

// Len returns the number of selected tabs.
func (s Select) Len() int { return len(s.tabs) }

// Contains reports whether a tab with the given ID is selected.
func (s Select) Contains(id string) bool {
	for _, t := range s.tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s Select) with(tab types.Tab) Select {
	if s.Contains(tab.ID) {
		return s
	}
	tabs := make([]types.Tab, len(s.tabs), len(s.tabs)+1)
	copy(tabs, s.tabs)
	return Select{tabs: append(tabs, tab)}
}

func (s Select) without(id string) Select {
	tabs := make([]types.Tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		if t.ID != id {
			tabs = append(tabs, t)
		}
	}
	return Select{tabs: tabs}
}

// State is an immutable snapshot of the tray. The zero value is the
// initial state: Normal mode on the NormalTabs page, not syncing.
type State struct {
	Mode         Mode
	SelectedPage Page
	Syncing      bool
}

// CurrentMode returns the state's mode, treating a nil Mode as Normal.
func (s State) CurrentMode() Mode {
	if s.Mode == nil {
		return Normal{}
	}
	return s.Mode
}

// InSelectMode reports whether multi-select mode is active.
func (s State) InSelectMode() bool {
	_, ok := s.CurrentMode().(Select)
	return ok
}

// IsSelected reports whether the tab with the given ID is in the selection.
func (s State) IsSelected(id string) bool {
	sel, ok := s.CurrentMode().(Select)
	return ok && sel.Contains(id)
}

// Summary is a JSON view of a State.
type Summary struct {
	Page     string   `json:"page"`
	Mode     string   `json:"mode"`
	Selected []string `json:"selected,omitempty"`
	Syncing  bool     `json:"syncing"`
}

func (s State) Summary() Summary {
	out := Summary{Page: s.SelectedPage.String(), Mode: "normal", Syncing: s.Syncing}
	if sel, ok := s.CurrentMode().(Select); ok {
		out.Mode = "select"
		for _, t := range sel.SelectedTabs() {
			out.Selected = append(out.Selected, t.ID)
		}
	}
	return out
}
