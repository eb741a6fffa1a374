package tabstray

import (
	"testing"

	"github.com/lotas/tabtray/internal/types"
)

func createTab(id string) types.Tab {
	return types.Tab{ID: id, URL: "https://example.com/" + id, Title: id}
}

func selectedIDs(s State) []string {
	var ids []string
	for _, t := range s.CurrentMode().SelectedTabs() {
		ids = append(ids, t.ID)
	}
	return ids
}

func reduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func TestReduceModeTransitions(t *testing.T) {
	tests := []struct {
		name       string
		start      State
		actions    []Action
		wantSelect bool
		wantIDs    []string
	}{
		{
			name:       "enter from normal",
			actions:    []Action{EnterSelectMode{}},
			wantSelect: true,
		},
		{
			name:       "enter from select resets selection",
			start:      State{Mode: NewSelect(createTab("a"))},
			actions:    []Action{EnterSelectMode{}},
			wantSelect: true,
		},
		{
			name:    "exit from select",
			start:   State{Mode: NewSelect(createTab("a"))},
			actions: []Action{ExitSelectMode{}},
		},
		{
			name:    "exit from normal stays normal",
			actions: []Action{ExitSelectMode{}},
		},
		{
			name:       "add in normal enters select",
			actions:    []Action{AddSelectTab{createTab("a")}},
			wantSelect: true,
			wantIDs:    []string{"a"},
		},
		{
			name:       "add keeps order",
			actions:    []Action{EnterSelectMode{}, AddSelectTab{createTab("b")}, AddSelectTab{createTab("a")}},
			wantSelect: true,
			wantIDs:    []string{"b", "a"},
		},
		{
			name:       "add is a set operation",
			actions:    []Action{AddSelectTab{createTab("a")}, AddSelectTab{createTab("a")}},
			wantSelect: true,
			wantIDs:    []string{"a"},
		},
		{
			name:       "remove from select",
			actions:    []Action{AddSelectTab{createTab("a")}, AddSelectTab{createTab("b")}, RemoveSelectTab{createTab("a")}},
			wantSelect: true,
			wantIDs:    []string{"b"},
		},
		{
			name:       "remove unknown tab is a no-op",
			start:      State{Mode: NewSelect(createTab("a"))},
			actions:    []Action{RemoveSelectTab{createTab("zzz")}},
			wantSelect: true,
			wantIDs:    []string{"a"},
		},
		{
			name:    "remove in normal stays normal",
			actions: []Action{RemoveSelectTab{createTab("a")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reduceAll(tt.start, tt.actions...)
			if got.InSelectMode() != tt.wantSelect {
				t.Fatalf("InSelectMode = %v, want %v (mode %T)", got.InSelectMode(), tt.wantSelect, got.Mode)
			}
			ids := selectedIDs(got)
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("selected = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("selected[%d] = %q, want %q", i, ids[i], tt.wantIDs[i])
				}
			}
		})
	}
}

func TestReduceSelectionDoesNotSurviveRoundTrip(t *testing.T) {
	s := reduceAll(State{},
		EnterSelectMode{},
		AddSelectTab{createTab("tab1")},
		ExitSelectMode{},
		EnterSelectMode{},
	)
	if !s.InSelectMode() {
		t.Fatalf("mode = %T, want Select", s.Mode)
	}
	if n := len(s.CurrentMode().SelectedTabs()); n != 0 {
		t.Errorf("selected %d tabs after re-entering select mode, want 0", n)
	}
}

func TestReduceAddRemoveRestoresSelection(t *testing.T) {
	before := State{Mode: NewSelect(createTab("a"), createTab("b"))}
	after := reduceAll(before, AddSelectTab{createTab("c")}, RemoveSelectTab{createTab("c")})

	want := selectedIDs(before)
	got := selectedIDs(after)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("selection = %v, want %v", got, want)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := State{Mode: NewSelect(createTab("a"))}
	_ = Reduce(before, AddSelectTab{createTab("b")})
	_ = Reduce(before, RemoveSelectTab{createTab("a")})

	if ids := selectedIDs(before); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("input selection changed to %v", ids)
	}
}

func TestReducePageAndSync(t *testing.T) {
	s := reduceAll(State{}, PageSelected{SyncedTabs}, PageSelected{PrivateTabs})
	if s.SelectedPage != PrivateTabs {
		t.Errorf("SelectedPage = %v, want %v", s.SelectedPage, PrivateTabs)
	}

	s = Reduce(s, SyncNow{})
	if !s.Syncing {
		t.Error("Syncing = false after SyncNow")
	}
	s = Reduce(s, SyncCompleted{})
	if s.Syncing {
		t.Error("Syncing = true after SyncCompleted")
	}
}

func TestReducePageIndependentOfMode(t *testing.T) {
	s := reduceAll(State{}, AddSelectTab{createTab("a")}, PageSelected{SyncedTabs}, SyncNow{})
	if ids := selectedIDs(s); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("selection = %v, want [a]", ids)
	}
	if s.SelectedPage != SyncedTabs || !s.Syncing {
		t.Errorf("state = %+v", s)
	}
}

func TestPageFromPosition(t *testing.T) {
	for _, p := range Pages() {
		if got := PageFromPosition(p.Position()); got != p {
			t.Errorf("PageFromPosition(%d) = %v, want %v", p.Position(), got, p)
		}
	}
	if got := PageFromPosition(7); got != NormalTabs {
		t.Errorf("PageFromPosition(7) = %v, want NormalTabs", got)
	}
}

func TestStateSummary(t *testing.T) {
	s := reduceAll(State{}, PageSelected{Page: PrivateTabs}, AddSelectTab{Tab: createTab("a")}, SyncNow{})
	got := s.Summary()
	if got.Page != "Private" || got.Mode != "select" || !got.Syncing {
		t.Errorf("Summary() = %+v", got)
	}
	if len(got.Selected) != 1 || got.Selected[0] != "a" {
		t.Errorf("Selected = %v, want [a]", got.Selected)
	}

	if got := (State{}).Summary(); got.Mode != "normal" || got.Selected != nil {
		t.Errorf("zero Summary() = %+v", got)
	}
}
