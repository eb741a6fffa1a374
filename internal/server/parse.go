package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lotas/tabtray/internal/types"
)

type wireTab struct {
	ID           int    `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	LastAccessed int64  `json:"lastAccessed"`
	Incognito    bool   `json:"incognito"`
	WindowID     int    `json:"windowId"`
	Index        int    `json:"index"`
	FavIconURL   string `json:"favIconUrl"`
}

type wireSyncedTab struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	LastUsed   int64  `json:"lastUsed"`
	FavIconURL string `json:"icon"`
}

type wireDevice struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Tabs []wireSyncedTab `json:"tabs"`
}

// LiveTabID builds the tray ID for a live browser tab.
func LiveTabID(browserID int) string {
	return "b:" + strconv.Itoa(browserID)
}

func (wt wireTab) toTab() *types.Tab {
	return &types.Tab{
		ID:           LiveTabID(wt.ID),
		BrowserID:    wt.ID,
		URL:          wt.URL,
		Title:        wt.Title,
		LastAccessed: time.UnixMilli(wt.LastAccessed),
		Private:      wt.Incognito,
		Favicon:      wt.FavIconURL,
		WindowIndex:  wt.WindowID,
		TabIndex:     wt.Index,
	}
}

// ParseSnapshot converts an IncomingMsg of type "snapshot" into a SessionData.
func ParseSnapshot(msg IncomingMsg) (*types.SessionData, error) {
	var tabs []wireTab
	if err := json.Unmarshal(msg.Tabs, &tabs); err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}

	sd := &types.SessionData{ParsedAt: time.Now()}
	for _, wt := range tabs {
		sd.Tabs = append(sd.Tabs, wt.toTab())
	}
	return sd, nil
}

// ParseTab converts a raw JSON tab into a Tab.
func ParseTab(raw json.RawMessage) (*types.Tab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, err
	}
	return wt.toTab(), nil
}

// ParseSyncedTabs flattens the devices of a "synced-tabs" message into
// tabs tagged with their device name.
func ParseSyncedTabs(msg IncomingMsg) ([]*types.Tab, error) {
	var devices []wireDevice
	if err := json.Unmarshal(msg.Devices, &devices); err != nil {
		return nil, fmt.Errorf("parse devices: %w", err)
	}

	var tabs []*types.Tab
	for _, d := range devices {
		for i, st := range d.Tabs {
			tabs = append(tabs, &types.Tab{
				ID:           fmt.Sprintf("s:%s:%d", d.ID, i),
				URL:          st.URL,
				Title:        st.Title,
				LastAccessed: time.Unix(st.LastUsed, 0),
				Favicon:      st.FavIconURL,
				Device:       d.Name,
				TabIndex:     i,
			})
		}
	}
	return tabs, nil
}
