package tabstray

import (
	"fmt"

	"github.com/lotas/tabtray/internal/types"
)

// Action describes an intended state transition. The set of actions is closed.
type Action interface {
	// ActionType names the action for logging.
	ActionType() string
	isAction()
}

type (
	// EnterSelectMode switches to Select with an empty selection.
	EnterSelectMode struct{}
	// ExitSelectMode switches back to Normal, discarding the selection.
	ExitSelectMode struct{}
	// AddSelectTab adds a tab to the selection.
	AddSelectTab struct{ Tab types.Tab }
	// RemoveSelectTab removes a tab from the selection.
	RemoveSelectTab struct{ Tab types.Tab }
	// PageSelected makes Page the active page.
	PageSelected struct{ Page Page }
	// SyncNow marks a sync as running.
	SyncNow struct{}
	// SyncCompleted marks the running sync as finished.
	SyncCompleted struct{}
)

func (EnterSelectMode) ActionType() string   { return "EnterSelectMode" }
func (ExitSelectMode) ActionType() string    { return "ExitSelectMode" }
func (a AddSelectTab) ActionType() string    { return fmt.Sprintf("AddSelectTab(%s)", a.Tab.ID) }
func (a RemoveSelectTab) ActionType() string { return fmt.Sprintf("RemoveSelectTab(%s)", a.Tab.ID) }
func (a PageSelected) ActionType() string    { return fmt.Sprintf("PageSelected(%s)", a.Page) }
func (SyncNow) ActionType() string           { return "SyncNow" }
func (SyncCompleted) ActionType() string     { return "SyncCompleted" }

func (EnterSelectMode) isAction() {}
func (ExitSelectMode) isAction()  {}
func (AddSelectTab) isAction()    {}
func (RemoveSelectTab) isAction() {}
func (PageSelected) isAction()    {}
func (SyncNow) isAction()         {}
func (SyncCompleted) isAction()   {}
