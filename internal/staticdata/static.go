// Package staticdata bundles versioned reference snapshots into the binary
// so the service can serve a known-good basket with no external data
// dependency. Each file carries the claimed total and unit price alongside
// the caps; normalization re-derives both and rejects the bundle on drift.
package staticdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"metior/internal/domain"
)

//go:embed snapshots/*.json
var snapshotFS embed.FS

// ErrNoSnapshot reports a date with no bundled reference.
type ErrNoSnapshot struct {
	Date string
}

func (e *ErrNoSnapshot) Error() string {
	return fmt.Sprintf("no static snapshot for date %q", e.Date)
}

// Load returns the bundled raw input for a reference date, claims included.
func Load(date string) (domain.RawSnapshotInput, error) {
	data, err := snapshotFS.ReadFile("snapshots/weights_" + date + ".json")
	if err != nil {
		return domain.RawSnapshotInput{}, &ErrNoSnapshot{Date: date}
	}
	var raw domain.RawSnapshotInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.RawSnapshotInput{}, fmt.Errorf("decode static snapshot %s: %w", date, err)
	}
	return raw, nil
}

// Dates lists bundled reference dates, newest first.
func Dates() []string {
	entries, err := fs.ReadDir(snapshotFS, "snapshots")
	if err != nil {
		return nil
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e.Name(), "weights_"), ".json")
		dates = append(dates, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Latest returns the newest bundled reference date.
func Latest() (string, error) {
	dates := Dates()
	if len(dates) == 0 {
		return "", fmt.Errorf("no static snapshots bundled")
	}
	return dates[0], nil
}
