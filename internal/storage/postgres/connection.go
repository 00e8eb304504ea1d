package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"commerce_sync/internal/domain"
)

var ErrConnectionNotFound = domain.ErrConnectionNotFound

const connectionColumns = `id, brand_id, platform, shop_domain, access_token,
	timezone, sync_status, created_at, updated_at`

// ConnectionStore reads platform connections. Rows are created by the web
// tier; the worker only updates sync_status.
type ConnectionStore struct {
	db *sqlx.DB
}

func NewConnectionStore(db *sqlx.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	var conn domain.Connection
	err := s.db.GetContext(ctx, &conn,
		`SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *ConnectionStore) List(ctx context.Context, platform string) ([]domain.Connection, error) {
	var conns []domain.Connection
	err := s.db.SelectContext(ctx, &conns,
		`SELECT `+connectionColumns+` FROM connections WHERE platform = $1 ORDER BY created_at`,
		platform,
	)
	return conns, err
}

func (s *ConnectionStore) SetSyncStatus(ctx context.Context, id string, status domain.OverallStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE connections SET sync_status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	return nil
}
