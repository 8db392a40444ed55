package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

const topSupportColumns = `id, streamer_id, viewer_id, value, count, created_at, updated_at, deleted_at`

var leaderboardTables = map[model.LeaderboardKind]string{
	model.LeaderboardTopSupport:   "top_supports",
	model.LeaderboardTopSupporter: "top_supporters",
}

// TopSupportRepo serves one leaderboard table. Both tables share a layout.
type TopSupportRepo struct {
	db    *DB
	kind  model.LeaderboardKind
	table string
}

func NewTopSupportRepo(db *DB, kind model.LeaderboardKind) *TopSupportRepo {
	table, ok := leaderboardTables[kind]
	if !ok {
		panic(fmt.Sprintf("unknown leaderboard kind %q", kind))
	}
	return &TopSupportRepo{db: db, kind: kind, table: table}
}

func (r *TopSupportRepo) Kind() model.LeaderboardKind {
	return r.kind
}

func (r *TopSupportRepo) scan(row rowScanner) (*model.TopSupport, error) {
	ts := model.TopSupport{Kind: r.kind}
	if err := row.Scan(&ts.ID, &ts.StreamerID, &ts.ViewerID, &ts.Value, &ts.Count, &ts.CreatedAt, &ts.UpdatedAt, &ts.DeletedAt); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *TopSupportRepo) Ensure(ctx context.Context, streamerID, viewerID uuid.UUID) (*model.TopSupport, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	ts, err := r.scan(r.db.QueryRowContext(ctx, `
		INSERT INTO `+r.table+` (streamer_id, viewer_id)
		VALUES ($1, $2)
		ON CONFLICT (streamer_id, viewer_id) DO UPDATE SET streamer_id = `+r.table+`.streamer_id
		RETURNING `+topSupportColumns,
		streamerID, viewerID))
	if err != nil {
		return nil, fmt.Errorf("ensure %s: %w", r.kind, err)
	}
	return ts, nil
}

func (r *TopSupportRepo) IncrementTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, value decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE `+r.table+` SET value = value + $2, count = count + 1, updated_at = now() WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("increment %s %s: %w", r.kind, id, err)
	}
	return requireOneRow(res, "increment "+r.kind.String(), id)
}
