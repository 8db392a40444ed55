package postgres

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// requireOneRow fails when an update keyed by primary key touched nothing.
func requireOneRow(res sql.Result, op string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}
	if n != 1 {
		return fmt.Errorf("%s %s: %d rows affected", op, id, n)
	}
	return nil
}
