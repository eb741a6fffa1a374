package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtray/internal/creditcards"
	"github.com/lotas/tabtray/internal/types"
)

// CardStore is the credit card storage the screens need.
type CardStore interface {
	creditcards.Storage
	ListCreditCards(ctx context.Context) ([]types.CreditCard, error)
	DeleteCreditCard(ctx context.Context, guid string) error
}

type cardsLoadedMsg struct {
	cards []types.CreditCard
	err   error
}

type cardDeletedMsg struct {
	guid string
	err  error
}

func loadCards(store CardStore) tea.Cmd {
	return func() tea.Msg {
		cards, err := store.ListCreditCards(context.Background())
		return cardsLoadedMsg{cards: cards, err: err}
	}
}

func deleteCard(store CardStore, guid string) tea.Cmd {
	return func() tea.Msg {
		return cardDeletedMsg{guid: guid, err: store.DeleteCreditCard(context.Background(), guid)}
	}
}

// CardsView is the credit card management screen.
type CardsView struct {
	cards      []types.CreditCard
	cursor     int
	err        error
	store      CardStore
	controller creditcards.ManagementController
}

func NewCardsView(store CardStore, controller creditcards.ManagementController) CardsView {
	return CardsView{store: store, controller: controller}
}

func (v *CardsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case cardsLoadedMsg:
		v.cards, v.err = msg.cards, msg.err
		if v.cursor >= len(v.cards) {
			v.cursor = max(len(v.cards)-1, 0)
		}
	case cardDeletedMsg:
		if msg.err != nil {
			v.err = msg.err
			return nil
		}
		return loadCards(v.store)
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(v.cards)-1 {
				v.cursor++
			}
		case "enter", "a":
			v.controller.HandleCreditCardClicked()
		case "d":
			if v.cursor < len(v.cards) {
				return deleteCard(v.store, v.cards[v.cursor].GUID)
			}
		}
	}
	return nil
}

func (v CardsView) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Credit cards") + "\n\n")
	if v.err != nil {
		b.WriteString(errStyle.Render("  "+v.err.Error()) + "\n\n")
	}
	if len(v.cards) == 0 {
		b.WriteString(dimStyle.Render("  No saved cards") + "\n")
	}
	for i, c := range v.cards {
		line := fmt.Sprintf("  %-10s %s  %-24s %02d/%d", c.CardType, c.ObscuredNumber(), c.BillingName, c.ExpiryMonth, c.ExpiryYear)
		if i == v.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("  a add · d delete · esc back"))
	return b.String()
}
