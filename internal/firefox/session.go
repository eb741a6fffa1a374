package firefox

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lotas/tabtray/internal/types"
	"github.com/pierrec/lz4/v4"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

// sessionFiles are tried in order: the running session, then the last closed one.
var sessionFiles = []string{"recovery.jsonlz4", "previous.jsonlz4"}

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format.
// The format is: 8-byte magic "mozLz40\x00" + 4-byte LE uint32 uncompressed size + lz4 block data.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12 // 8 magic + 4 size

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	for i := range mozLz4Magic {
		if data[i] != mozLz4Magic[i] {
			return nil, fmt.Errorf("mozlz4: invalid header magic")
		}
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:12])
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries      []rawEntry `json:"entries"`
	Index        int        `json:"index"`
	LastAccessed int64      `json:"lastAccessed"`
	Image        string     `json:"image"`
}

type rawWindow struct {
	Tabs      []rawTab `json:"tabs"`
	IsPrivate bool     `json:"isPrivate"`
}

type rawSession struct {
	Windows []rawWindow `json:"windows"`
}

// TabID builds the tray ID for a tab read from a session file.
func TabID(window, index int) string {
	return fmt.Sprintf("w%d:t%d", window, index)
}

// ParseSession parses raw session JSON into the tray's tab list.
// Tabs of private windows are marked Private.
func ParseSession(data []byte) (*types.SessionData, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	sd := &types.SessionData{ParsedAt: time.Now()}
	for winIdx, window := range raw.Windows {
		for tabIdx, rt := range window.Tabs {
			if len(rt.Entries) == 0 {
				continue
			}
			// index is 1-based; current page is entries[index-1].
			entryIdx := rt.Index - 1
			if entryIdx < 0 || entryIdx >= len(rt.Entries) {
				entryIdx = len(rt.Entries) - 1
			}
			entry := rt.Entries[entryIdx]

			sd.Tabs = append(sd.Tabs, &types.Tab{
				ID:           TabID(winIdx, tabIdx),
				URL:          entry.URL,
				Title:        entry.Title,
				LastAccessed: time.UnixMilli(rt.LastAccessed),
				Private:      window.IsPrivate,
				Favicon:      rt.Image,
				WindowIndex:  winIdx,
				TabIndex:     tabIdx,
			})
		}
	}
	return sd, nil
}

// ReadSessionFile reads and parses the session file of the given profile directory.
func ReadSessionFile(profileDir string) (*types.SessionData, error) {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	var data []byte
	var err error
	for _, name := range sessionFiles {
		data, err = os.ReadFile(filepath.Join(backupDir, name))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("no session file found in %s", backupDir)
	}

	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, fmt.Errorf("decompress session file: %w", err)
	}
	return ParseSession(decompressed)
}
