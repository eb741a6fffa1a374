package server

import (
	"encoding/json"
	"testing"
)

func TestParseSnapshot(t *testing.T) {
	snapshot := `{
		"type": "snapshot",
		"tabs": [
			{"id": 1, "url": "https://example.com", "title": "Example", "lastAccessed": 1700000000000, "windowId": 1, "index": 0},
			{"id": 2, "url": "https://other.com", "title": "Other", "lastAccessed": 1700000060000, "incognito": true, "windowId": 2, "index": 0}
		]
	}`

	var msg IncomingMsg
	if err := json.Unmarshal([]byte(snapshot), &msg); err != nil {
		t.Fatal(err)
	}

	data, err := ParseSnapshot(msg)
	if err != nil {
		t.Fatal(err)
	}

	if len(data.Tabs) != 2 {
		t.Fatalf("got %d tabs, want 2", len(data.Tabs))
	}
	if data.Tabs[0].BrowserID != 1 || data.Tabs[0].ID != "b:1" {
		t.Errorf("tab 0 ids = %d/%q", data.Tabs[0].BrowserID, data.Tabs[0].ID)
	}
	if data.Tabs[0].URL != "https://example.com" {
		t.Errorf("tab URL = %q", data.Tabs[0].URL)
	}
	if data.Tabs[0].LastAccessed.IsZero() {
		t.Error("tab LastAccessed is zero")
	}
	if data.Tabs[0].Private || !data.Tabs[1].Private {
		t.Errorf("private flags = %v/%v, want false/true", data.Tabs[0].Private, data.Tabs[1].Private)
	}
}

func TestParseSnapshotBadTabs(t *testing.T) {
	if _, err := ParseSnapshot(IncomingMsg{Type: MsgSnapshot, Tabs: json.RawMessage(`{}`)}); err == nil {
		t.Fatal("expected error for non-array tabs")
	}
}

func TestParseTab(t *testing.T) {
	raw := json.RawMessage(`{"id": 42, "url": "https://new.com", "title": "New", "lastAccessed": 1700000000000, "windowId": 1, "index": 3}`)
	tab, err := ParseTab(raw)
	if err != nil {
		t.Fatal(err)
	}
	if tab.BrowserID != 42 || tab.ID != LiveTabID(42) {
		t.Errorf("ids = %d/%q", tab.BrowserID, tab.ID)
	}
	if tab.TabIndex != 3 {
		t.Errorf("TabIndex = %d, want 3", tab.TabIndex)
	}
}

func TestParseSyncedTabs(t *testing.T) {
	msg := IncomingMsg{
		Type: MsgSyncedTabs,
		Devices: json.RawMessage(`[
			{"id": "phone", "name": "Pixel", "tabs": [
				{"url": "https://a.example", "title": "A", "lastUsed": 1700000000},
				{"url": "https://b.example", "title": "B", "lastUsed": 1700000100}
			]},
			{"id": "laptop", "name": "Work laptop", "tabs": [
				{"url": "https://c.example", "title": "C", "lastUsed": 1700000200}
			]}
		]`),
	}

	tabs, err := ParseSyncedTabs(msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(tabs) != 3 {
		t.Fatalf("got %d tabs, want 3", len(tabs))
	}
	if tabs[1].ID != "s:phone:1" || tabs[1].Device != "Pixel" {
		t.Errorf("tab 1 = %+v", tabs[1])
	}
	if tabs[2].Device != "Work laptop" || tabs[2].LastAccessed.Unix() != 1700000200 {
		t.Errorf("tab 2 = %+v", tabs[2])
	}

	seen := map[string]bool{}
	for _, tab := range tabs {
		if seen[tab.ID] {
			t.Errorf("duplicate id %q", tab.ID)
		}
		seen[tab.ID] = true
	}
}
