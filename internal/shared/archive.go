package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Archivable entities all share the same is_archived column and the same
// active/archived state machine; Archiver is the single implementation of
// that transition so repositories do not repeat it per table.
type Archiver struct {
	pool *pgxpool.Pool
}

// NewArchiver returns an Archiver bound to the pool.
func NewArchiver(pool *pgxpool.Pool) *Archiver {
	return &Archiver{pool: pool}
}

// SetArchived flips the archived flag for one row of the named table.
// Returns ErrNotFound when the id does not exist.
func (a *Archiver) SetArchived(ctx context.Context, table string, id int64, archived bool) error {
	tag, err := a.pool.Exec(ctx, fmt.Sprintf(`UPDATE %s SET is_archived = $1, updated_at = NOW() WHERE id = $2`, table), archived, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
