package domain

import "time"

// ExportVersion is written into every exported file.
const ExportVersion = "1.0"

// Snapshot is the body exchanged with the shared data store and written to
// the local fallback store.
type Snapshot struct {
	Weeks           int    `json:"weeks"`
	Lanes           []Lane `json:"swimlanes"`
	Tasks           []Task `json:"tasks"`
	Timestamp       string `json:"timestamp,omitempty"`
	LastSaved       string `json:"lastSaved,omitempty"`
	ServerTimestamp string `json:"serverTimestamp,omitempty"`
}

// ExportDocument is the downloadable project file.
type ExportDocument struct {
	Weeks    int    `json:"weeks"`
	Lanes    []Lane `json:"swimlanes"`
	Tasks    []Task `json:"tasks"`
	Exported string `json:"exported"`
	Version  string `json:"version"`
}

// NewSnapshot copies the board into a snapshot stamped with now.
func NewSnapshot(b *Board, now time.Time) Snapshot {
	c := b.Clone()
	return Snapshot{
		Weeks:     c.Weeks,
		Lanes:     c.Lanes,
		Tasks:     c.Tasks,
		Timestamp: FormatTimestamp(now),
	}
}

// Board converts the snapshot back into a normalized board.
func (s Snapshot) Board() *Board {
	b := &Board{Weeks: s.Weeks, Lanes: s.Lanes, Tasks: s.Tasks}
	b = b.Clone()
	b.Normalize()
	return b
}

// NewExportDocument copies the board into an export document.
func NewExportDocument(b *Board, now time.Time) ExportDocument {
	c := b.Clone()
	return ExportDocument{
		Weeks:    c.Weeks,
		Lanes:    c.Lanes,
		Tasks:    c.Tasks,
		Exported: FormatTimestamp(now),
		Version:  ExportVersion,
	}
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
