package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gaudesp/noxbot/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		SELECT id, source_id, last_synced_at, total_updated, total_dispatched
		FROM sync_state
		WHERE source_id = ?`)

	var state domain.SyncState
	err := sqlx.GetContext(ctx, exec, &state, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for new sources
		return &domain.SyncState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state %s: %w", sourceID, err)
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		INSERT INTO sync_state (source_id, last_synced_at, total_updated, total_dispatched)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_id) DO UPDATE SET
			last_synced_at = excluded.last_synced_at,
			total_updated = excluded.total_updated,
			total_dispatched = excluded.total_dispatched`)

	_, err := exec.ExecContext(ctx, query,
		state.SourceID,
		state.LastSyncedAt.UTC(),
		state.TotalUpdated,
		state.TotalDispatched,
	)
	if err != nil {
		return fmt.Errorf("update sync state %s: %w", state.SourceID, err)
	}
	return nil
}
