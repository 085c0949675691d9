package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

const snapshotColumns = `id, name, owner, language, stars`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		s        models.Snapshot
		language sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Owner, &language, &s.Stars); err != nil {
		return nil, err
	}
	if language.Valid {
		s.Language = &language.String
	}
	return &s, nil
}

// ListSnapshots returns every stored snapshot, most starred first
func (s *SQLStore) ListSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM repos ORDER BY stars DESC, id`)
	if err != nil {
		return nil, errors.NewStoreError("failed to query snapshots", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, errors.NewStoreError("failed to scan snapshot", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("error iterating snapshots", err)
	}

	return snapshots, nil
}

// GetSnapshot looks a snapshot up by its GitHub id
func (s *SQLStore) GetSnapshot(ctx context.Context, id int64) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM repos WHERE id = $1`, id)
	return s.getOne(row, strconv.FormatInt(id, 10))
}

// GetSnapshotByName looks a snapshot up by exact, case-sensitive name
func (s *SQLStore) GetSnapshotByName(ctx context.Context, name string) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM repos WHERE name = $1 ORDER BY stars DESC LIMIT 1`, name)
	return s.getOne(row, name)
}

func (s *SQLStore) getOne(row *sql.Row, key string) (*models.Snapshot, error) {
	snapshot, err := scanSnapshot(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("repository", key)
	}
	if err != nil {
		return nil, errors.NewStoreError("failed to get snapshot "+key, err)
	}
	return snapshot, nil
}

// SaveSnapshot inserts the snapshot, or refreshes the star count when the id
// is already stored.
func (s *SQLStore) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	var language any
	if snapshot.Language != nil {
		language = *snapshot.Language
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repos (id, name, owner, language, stars)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			stars = excluded.stars`,
		snapshot.ID, snapshot.Name, snapshot.Owner, language, snapshot.Stars)
	if err != nil {
		return errors.NewStoreError("failed to save snapshot "+strconv.FormatInt(snapshot.ID, 10), err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":    snapshot.ID,
		"name":  snapshot.Name,
		"stars": snapshot.Stars,
	}).Debug("Snapshot saved")
	return nil
}

// PruneBelowRank deletes every snapshot whose stars fall below the star count
// held at position rank (1-based, most starred first). Ties at the boundary
// are kept.
func (s *SQLStore) PruneBelowRank(ctx context.Context, rank int) (int64, error) {
	if rank < 1 {
		return 0, errors.NewValidationError("prune rank must be positive", nil)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM repos
		WHERE stars < (SELECT stars FROM repos ORDER BY stars DESC LIMIT 1 OFFSET $1)`,
		rank-1)
	if err != nil {
		return 0, errors.NewStoreError("failed to prune snapshots", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStoreError("failed to get rows affected", err)
	}
	return deleted, nil
}

// CountSnapshots returns the number of stored snapshots
func (s *SQLStore) CountSnapshots(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repos`).Scan(&n); err != nil {
		return 0, errors.NewStoreError("failed to count snapshots", err)
	}
	return n, nil
}
