package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabtray/internal/types"
)

// Markdown formats session data as a markdown document.
func Markdown(data *types.SessionData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Firefox Tabs — %s\n", data.Profile.Name)
	fmt.Fprintf(&b, "> Exported %s\n", time.Now().Format("2006-01-02 15:04"))

	for _, s := range Sections(data) {
		n := len(s.Tabs)
		noun := "tabs"
		if n == 1 {
			noun = "tab"
		}
		fmt.Fprintf(&b, "\n## %s (%d %s)\n\n", s.Name, n, noun)

		for _, tab := range s.Tabs {
			writeLink(&b, *tab)
		}
	}

	return b.String()
}

// Selection formats the tabs picked in select mode as a markdown list,
// ready to paste.
func Selection(tabs []types.Tab) string {
	var b strings.Builder
	for _, tab := range tabs {
		writeLink(&b, tab)
	}
	return b.String()
}

func writeLink(b *strings.Builder, tab types.Tab) {
	title := tab.Title
	if title == "" {
		title = tab.URL
	}
	if tab.LastAccessed.IsZero() {
		fmt.Fprintf(b, "- [%s](%s)\n", title, tab.URL)
		return
	}
	fmt.Fprintf(b, "- [%s](%s) — %s\n", title, tab.URL, relativeTime(tab.LastAccessed))
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
