package domain

import "time"

// SyncStats holds statistics about one reconciliation cycle.
type SyncStats struct {
	SourceID        string
	Subscriptions   int
	ItemsChecked    int
	FetchFailed     int
	NotFound        int
	ArticlesUpdated int
	Dispatched      int
	DispatchFailed  int
	Errors          int
	Duration        time.Duration
}

// SyncState is the persisted running total for a source.
type SyncState struct {
	ID              int64     `db:"id"`
	SourceID        string    `db:"source_id"`
	LastSyncedAt    time.Time `db:"last_synced_at"`
	TotalUpdated    int64     `db:"total_updated"`
	TotalDispatched int64     `db:"total_dispatched"`
}
