package export

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/lotas/tabtray/internal/types"
)

type jsonExport struct {
	Profile    string        `json:"profile"`
	ExportedAt time.Time     `json:"exported_at"`
	Sections   []jsonSection `json:"sections"`
}

type jsonSection struct {
	Name string    `json:"name"`
	Tabs []jsonTab `json:"tabs"`
}

type jsonTab struct {
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Domain             string    `json:"domain"`
	Private            bool      `json:"private,omitempty"`
	Device             string    `json:"device,omitempty"`
	LastAccessed       time.Time `json:"last_accessed"`
	LastAccessedPretty string    `json:"last_accessed_pretty"`
	LastAccessedDays   int       `json:"last_accessed_days"`
}

// JSON formats session data as a JSON document.
func JSON(data *types.SessionData) (string, error) {
	sections := Sections(data)
	out := jsonExport{
		Profile:    data.Profile.Name,
		ExportedAt: time.Now(),
		Sections:   make([]jsonSection, 0, len(sections)),
	}

	for _, s := range sections {
		section := jsonSection{
			Name: s.Name,
			Tabs: make([]jsonTab, 0, len(s.Tabs)),
		}
		for _, tab := range s.Tabs {
			section.Tabs = append(section.Tabs, jsonTab{
				Title:              tab.Title,
				URL:                tab.URL,
				Domain:             extractDomain(tab.URL),
				Private:            tab.Private,
				Device:             tab.Device,
				LastAccessed:       tab.LastAccessed,
				LastAccessedPretty: relativeTime(tab.LastAccessed),
				LastAccessedDays:   int(time.Since(tab.LastAccessed).Hours() / 24),
			})
		}
		out.Sections = append(out.Sections, section)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
