// Package creditcards holds the controllers behind the credit card
// management and editor screens.
package creditcards

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabtray/internal/applog"
	"github.com/lotas/tabtray/internal/types"
)

// Destination is a screen the navigator can show.
type Destination int

const (
	DestinationTabsTray Destination = iota
	DestinationCreditCardsManagement
	DestinationCreditCardEditor
)

// Storage is the credit card backend the editor saves into.
type Storage interface {
	AddCreditCard(ctx context.Context, fields types.UpdatableCreditCardFields) (*types.CreditCard, error)
}

// Navigator moves between screens. Implementations must be safe to call
// from any goroutine.
type Navigator interface {
	PopBackStack()
	Navigate(dest Destination)
}

// SavedMsg reports a card that was stored.
type SavedMsg struct {
	Card *types.CreditCard
}

// SaveFailedMsg reports a card that could not be stored. The editor stays
// open so the user can correct the input or retry.
type SaveFailedMsg struct {
	Err error
}

// saveTimeout bounds a single storage write.
const saveTimeout = 10 * time.Second

// EditorController handles user actions on the credit card editor.
type EditorController interface {
	// HandleSaveCreditCard saves fields into storage. Called when the user
	// confirms the editor.
	HandleSaveCreditCard(fields types.UpdatableCreditCardFields) tea.Cmd
}

// DefaultEditorController stores the fields, then pops back to the
// previous screen once the write has completed. Input is validated by the
// editor screen before it gets here.
type DefaultEditorController struct {
	storage Storage
	nav     Navigator
}

func NewEditorController(storage Storage, nav Navigator) *DefaultEditorController {
	return &DefaultEditorController{storage: storage, nav: nav}
}

// HandleSaveCreditCard returns a command that runs the write off the UI
// loop. Navigation happens only after a successful write.
func (c *DefaultEditorController) HandleSaveCreditCard(fields types.UpdatableCreditCardFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		card, err := c.storage.AddCreditCard(ctx, fields)
		if err != nil {
			applog.Error("creditcard.save", err, "type", fields.CardType)
			return SaveFailedMsg{Err: err}
		}
		applog.Info("creditcard.saved", "guid", card.GUID, "type", card.CardType)

		c.nav.PopBackStack()
		return SavedMsg{Card: card}
	}
}

// ManagementController handles user actions on the credit card list.
type ManagementController interface {
	HandleCreditCardClicked()
}

// DefaultManagementController opens the editor when a card is chosen.
type DefaultManagementController struct {
	nav Navigator
}

func NewManagementController(nav Navigator) *DefaultManagementController {
	return &DefaultManagementController{nav: nav}
}

func (c *DefaultManagementController) HandleCreditCardClicked() {
	c.nav.Navigate(DestinationCreditCardEditor)
}
