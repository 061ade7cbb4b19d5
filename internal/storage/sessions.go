package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/expensy/internal/common"
)

// SaveSnapshot stores data under name, replacing any previous snapshot.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshotName(name); err != nil {
		return err
	}
	if err := validateData(data, "data"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, data, size, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = CURRENT_TIMESTAMP
	`, name, data, len(data))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot saved under name, or common.ErrNotFound.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, name string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateSnapshotName(name); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}
	return data, nil
}

// DeleteSnapshot removes the snapshot saved under name. Deleting a missing
// snapshot is not an error.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshotName(name); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}
	return nil
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	UpdatedAt time.Time
	Name      string
	Size      int
}

// ListSnapshots describes every stored snapshot.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, size, updated_at FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Name, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
