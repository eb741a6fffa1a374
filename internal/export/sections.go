package export

import (
	"github.com/lotas/tabtray/internal/types"
)

// Section is a titled list of tabs, one per tray page (synced tabs get one
// section per device).
type Section struct {
	Name string
	Tabs []*types.Tab
}

// Sections splits session data into the tray's pages. Empty pages are left out.
func Sections(data *types.SessionData) []Section {
	var normal, private []*types.Tab
	for _, t := range data.Tabs {
		if t.Private {
			private = append(private, t)
		} else {
			normal = append(normal, t)
		}
	}

	var out []Section
	if len(normal) > 0 {
		out = append(out, Section{Name: "Tabs", Tabs: normal})
	}
	if len(private) > 0 {
		out = append(out, Section{Name: "Private", Tabs: private})
	}

	byDevice := make(map[string]int)
	for _, t := range data.SyncedTabs {
		name := "Synced — " + t.Device
		if t.Device == "" {
			name = "Synced"
		}
		i, ok := byDevice[name]
		if !ok {
			i = len(out)
			byDevice[name] = i
			out = append(out, Section{Name: name})
		}
		out[i].Tabs = append(out[i].Tabs, t)
	}
	return out
}
