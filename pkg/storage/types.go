package storage

import "time"

// Change captures a single change event for auditing or printing.
type Change struct {
	OccurredAt time.Time
	RunID      string

	// Item info
	ItemID   string
	ItemName string

	ChangeType string // added | updated | removed
	Report     string
}
