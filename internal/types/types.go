package types

import "time"

// Tab represents a single browser tab shown in the tray.
type Tab struct {
	ID           string // unique within a session; selection is keyed on it
	URL          string
	Title        string
	LastAccessed time.Time
	Private      bool
	Favicon      string
	WindowIndex  int
	TabIndex     int
	BrowserID    int    // live Firefox tab ID; 0 in offline mode
	Device       string // originating device for synced tabs
}

// BrowserTabType selects which local tabs a tray list shows.
type BrowserTabType int

const (
	BrowserTabNormal BrowserTabType = iota
	BrowserTabPrivate
)

func (t BrowserTabType) String() string {
	if t == BrowserTabPrivate {
		return "private"
	}
	return "normal"
}

// Matches reports whether the tab belongs to this tab type.
func (t BrowserTabType) Matches(tab *Tab) bool {
	return tab.Private == (t == BrowserTabPrivate)
}

// Profile represents a Firefox profile.
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// SessionData holds the tabs known to the tray.
type SessionData struct {
	Tabs       []*Tab
	SyncedTabs []*Tab
	Profile    Profile
	ParsedAt   time.Time
}

// FindTab returns the local tab with the given ID, or nil.
func (s *SessionData) FindTab(id string) *Tab {
	if s == nil {
		return nil
	}
	for _, t := range s.Tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// RemoveTab drops the local tab with the given ID. It reports whether a tab was removed.
func (s *SessionData) RemoveTab(id string) bool {
	if s == nil {
		return false
	}
	for i, t := range s.Tabs {
		if t.ID == id {
			s.Tabs = append(s.Tabs[:i], s.Tabs[i+1:]...)
			return true
		}
	}
	return false
}

// UpdatableCreditCardFields is the user-editable part of a credit card record.
type UpdatableCreditCardFields struct {
	BillingName string
	CardNumber  string
	ExpiryMonth int
	ExpiryYear  int
	CardType    string // "visa", "mastercard", "amex", "discover", ...
}

// CreditCard is a stored credit card. The full number never leaves storage
// unencrypted except through an explicit decrypt call.
type CreditCard struct {
	GUID        string
	BillingName string
	LastFour    string
	ExpiryMonth int
	ExpiryYear  int
	CardType    string
	CreatedAt   time.Time
}

// ObscuredNumber renders the card number for display, e.g. "•••• 1111".
func (c CreditCard) ObscuredNumber() string {
	return "•••• " + c.LastFour
}
