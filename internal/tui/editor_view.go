package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtray/internal/creditcards"
	"github.com/lotas/tabtray/internal/types"
)

const (
	fieldName = iota
	fieldNumber
	fieldMonth
	fieldYear
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name on card", "Card number", "Expiry month", "Expiry year"}

// EditorView is the credit card editor form.
type EditorView struct {
	inputs     [fieldCount]textinput.Model
	focus      int
	saving     bool
	err        error
	controller creditcards.EditorController
	now        func() time.Time
}

func NewEditorView(controller creditcards.EditorController) EditorView {
	v := EditorView{controller: controller, now: time.Now}
	for i := range v.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		v.inputs[i] = in
	}
	v.inputs[fieldNumber].CharLimit = 23
	v.inputs[fieldMonth].CharLimit = 2
	v.inputs[fieldMonth].Placeholder = "MM"
	v.inputs[fieldYear].CharLimit = 4
	v.inputs[fieldYear].Placeholder = "YYYY"
	v.inputs[fieldName].Focus()
	return v
}

// Fields reads the form. Unparsable numbers become 0 and fail validation.
func (v EditorView) Fields() types.UpdatableCreditCardFields {
	month, _ := strconv.Atoi(strings.TrimSpace(v.inputs[fieldMonth].Value()))
	year, _ := strconv.Atoi(strings.TrimSpace(v.inputs[fieldYear].Value()))
	if year > 0 && year < 100 {
		year += 2000
	}
	number := v.inputs[fieldNumber].Value()
	return types.UpdatableCreditCardFields{
		BillingName: strings.TrimSpace(v.inputs[fieldName].Value()),
		CardNumber:  creditcards.NormalizeNumber(number),
		ExpiryMonth: month,
		ExpiryYear:  year,
		CardType:    creditcards.DetectCardType(number),
	}
}

func (v *EditorView) setFocus(i int) tea.Cmd {
	v.inputs[v.focus].Blur()
	v.focus = (i + fieldCount) % fieldCount
	return v.inputs[v.focus].Focus()
}

func (v *EditorView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case creditcards.SaveFailedMsg:
		v.saving = false
		v.err = msg.Err
		return nil
	case creditcards.SavedMsg:
		v.saving = false
		v.err = nil
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return v.setFocus(v.focus + 1)
		case "shift+tab", "up":
			return v.setFocus(v.focus - 1)
		case "enter":
			if v.focus < fieldCount-1 {
				return v.setFocus(v.focus + 1)
			}
			return v.save()
		case "ctrl+s":
			return v.save()
		}
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return cmd
}

// Saving reports whether a save is in flight.
func (v EditorView) Saving() bool { return v.saving }

// save validates the form and hands it to the controller. Invalid input
// stays on the form with the error shown.
func (v *EditorView) save() tea.Cmd {
	if v.saving {
		return nil
	}
	fields := v.Fields()
	if err := creditcards.Validate(fields, v.now()); err != nil {
		v.err = err
		return nil
	}
	v.saving = true
	v.err = nil
	return v.controller.HandleSaveCreditCard(fields)
}

func (v EditorView) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("245"))
	focusStyle := lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("62")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Add credit card") + "\n\n")
	for i := range v.inputs {
		label := labelStyle
		if i == v.focus {
			label = focusStyle
		}
		b.WriteString("  " + label.Render(fieldLabels[i]) + v.inputs[i].View() + "\n")
	}
	if t := v.Fields().CardType; t != "" {
		b.WriteString("\n  " + dimStyle.Render("Detected: "+t) + "\n")
	}
	switch {
	case v.saving:
		b.WriteString("\n  " + dimStyle.Render("Saving…") + "\n")
	case v.err != nil:
		b.WriteString("\n  " + errStyle.Render("Could not save: "+v.err.Error()) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("  tab next field · ctrl+s save · esc cancel"))
	return b.String()
}
