package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/model"
)

// ClickRepository is the append-only visit ledger. There is no update
// or delete: rows vanish only when the owning link cascades away.
type ClickRepository interface {
	Append(ctx context.Context, click *model.ClickEvent) error
	// ListTimesByLink returns the click timestamps for one link,
	// created_at ascending.
	ListTimesByLink(ctx context.Context, linkID uuid.UUID) ([]time.Time, error)
}

type PostgresClickRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresClickRepository(db *pgxpool.Pool) *PostgresClickRepository {
	return &PostgresClickRepository{
		db:     db,
		logger: zap.L().With(zap.String("component", "PostgresClickRepository")),
	}
}

// Append inserts one click event. The timestamp is assigned by the
// database, so ledger ordering does not depend on application clocks.
func (r *PostgresClickRepository) Append(ctx context.Context, click *model.ClickEvent) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		INSERT INTO clicks (link_id, ip_address, user_agent)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, click.LinkID, click.IPAddress, click.UserAgent).
		Scan(&click.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *PostgresClickRepository) ListTimesByLink(ctx context.Context, linkID uuid.UUID) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT created_at FROM clicks WHERE link_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, linkID)
	if err != nil {
		r.logger.Error("Database query error", zap.Error(err), zap.String("link_id", linkID.String()))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return times, nil
}
