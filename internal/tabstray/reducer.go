package tabstray

// Reduce computes the state that follows applying action to state.
// It never mutates state and handles every action.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case EnterSelectMode:
		state.Mode = NewSelect()
	case ExitSelectMode:
		state.Mode = Normal{}
	case AddSelectTab:
		switch m := state.CurrentMode().(type) {
		case Select:
			state.Mode = m.with(a.Tab)
		case Normal:
			state.Mode = NewSelect(a.Tab)
		}
	case RemoveSelectTab:
		switch m := state.CurrentMode().(type) {
		case Select:
			state.Mode = m.without(a.Tab.ID)
		case Normal:
			state.Mode = m
		}
	case PageSelected:
		state.SelectedPage = a.Page
	case SyncNow:
		state.Syncing = true
	case SyncCompleted:
		state.Syncing = false
	}
	return state
}
