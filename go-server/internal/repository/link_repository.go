package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/model"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrDuplicateCode = errors.New("short code already taken")
	ErrDatabaseError = errors.New("database error")
)

const (
	cacheTimeout   = 24 * time.Hour
	dbTimeout      = 5 * time.Second
	cacheKeyPrefix = "link:"

	uniqueViolation = "23505" // PostgreSQL SQLSTATE
)

// LinkRepository is the durable short_code -> target mapping. Uniqueness
// of short_code and click counting are enforced here, inside the
// database, never by a read-then-write in callers.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	// GetByCode is the redirect hot path and is cache-backed; the
	// returned link carries at least ID, ShortCode and OriginalURL.
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	// GetByCodeForOwner scopes the lookup to one owner. A link owned by
	// someone else is indistinguishable from an absent one.
	GetByCodeForOwner(ctx context.Context, code string, ownerID uuid.UUID) (*model.Link, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Link, error)
	// Update persists original_url and short_code; prevCode is the code
	// the link held before the update, so its cache entry can be dropped.
	Update(ctx context.Context, link *model.Link, prevCode string) error
	Delete(ctx context.Context, id uuid.UUID, code string) error
	IncrementClicks(ctx context.Context, id uuid.UUID) error
	SetQRCode(ctx context.Context, id uuid.UUID, png []byte) error
}

// PostgresLinkRepository implements LinkRepository on pgx with a Redis
// cache-aside in front of the redirect lookup.
type PostgresLinkRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewPostgresLinkRepository(db *pgxpool.Pool, redisClient *redis.Client) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db:          db,
		redisClient: redisClient,
		logger:      zap.L().With(zap.String("component", "PostgresLinkRepository")),
	}
}

// cachedLink is the slice of a link the redirect path needs.
type cachedLink struct {
	ID          uuid.UUID `json:"id"`
	OriginalURL string    `json:"original_url"`
}

func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		INSERT INTO links (user_id, original_url, short_code)
		VALUES ($1, $2, $3)
		RETURNING id, click_count, created_at`

	err := r.db.QueryRow(ctx, query, link.UserID, link.OriginalURL, link.ShortCode).
		Scan(&link.ID, &link.ClickCount, &link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Info("Short code already taken", zap.String("short_code", link.ShortCode))
			return ErrDuplicateCode
		}
		r.logger.Error("Failed to insert link", zap.Error(err), zap.String("short_code", link.ShortCode))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// Try cache first if Redis is available
	if r.redisClient != nil {
		val, err := r.redisClient.Get(ctx, cacheKeyPrefix+code).Result()
		if err == nil {
			var cached cachedLink
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				r.logger.Debug("Link found in cache", zap.String("short_code", code))
				return &model.Link{ID: cached.ID, ShortCode: code, OriginalURL: cached.OriginalURL}, nil
			}
			r.logger.Warn("Corrupt cache entry, falling through", zap.String("short_code", code))
		} else if err != redis.Nil {
			r.logger.Warn("Cache error", zap.Error(err), zap.String("short_code", code))
		}
	}

	link := &model.Link{}
	query := `
		SELECT id, user_id, original_url, short_code, click_count, created_at
		FROM links WHERE short_code = $1`
	err := r.db.QueryRow(ctx, query, code).
		Scan(&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode, &link.ClickCount, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Link not found", zap.String("short_code", code))
			return nil, ErrLinkNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("short_code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	r.cacheLink(ctx, link)

	return link, nil
}

func (r *PostgresLinkRepository) GetByCodeForOwner(ctx context.Context, code string, ownerID uuid.UUID) (*model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	link := &model.Link{}
	query := `
		SELECT id, user_id, original_url, short_code, click_count, qr_code, created_at
		FROM links WHERE short_code = $1 AND user_id = $2`
	err := r.db.QueryRow(ctx, query, code, ownerID).
		Scan(&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode, &link.ClickCount, &link.QRCode, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("short_code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	link := &model.Link{}
	query := `
		SELECT id, user_id, original_url, short_code, click_count, qr_code, created_at
		FROM links WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode, &link.ClickCount, &link.QRCode, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("link_id", id.String()))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, original_url, short_code, click_count, created_at
		FROM links WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Database query error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode, &link.ClickCount, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return links, nil
}

func (r *PostgresLinkRepository) Update(ctx context.Context, link *model.Link, prevCode string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `UPDATE links SET original_url = $2, short_code = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, link.ID, link.OriginalURL, link.ShortCode)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		r.logger.Error("Failed to update link", zap.Error(err), zap.String("link_id", link.ID.String()))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	r.invalidate(ctx, prevCode, link.ShortCode)

	return nil
}

func (r *PostgresLinkRepository) Delete(ctx context.Context, id uuid.UUID, code string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// clicks cascade via the foreign key
	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.Error(err), zap.String("link_id", id.String()))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	r.invalidate(ctx, code)

	return nil
}

// IncrementClicks bumps the aggregate counter in a single atomic
// statement, which keeps the count exact under concurrent redirects.
func (r *PostgresLinkRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE links SET click_count = click_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *PostgresLinkRepository) SetQRCode(ctx context.Context, id uuid.UUID, png []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE links SET qr_code = $2 WHERE id = $1`, id, png)
	if err != nil {
		r.logger.Error("Failed to store QR payload", zap.Error(err), zap.String("link_id", id.String()))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *PostgresLinkRepository) cacheLink(ctx context.Context, link *model.Link) {
	if r.redisClient == nil {
		return
	}

	payload, err := json.Marshal(cachedLink{ID: link.ID, OriginalURL: link.OriginalURL})
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, cacheKeyPrefix+link.ShortCode, payload, cacheTimeout).Err(); err != nil {
		r.logger.Warn("Failed to cache link", zap.Error(err), zap.String("short_code", link.ShortCode))
	}
}

func (r *PostgresLinkRepository) invalidate(ctx context.Context, codes ...string) {
	if r.redisClient == nil {
		return
	}

	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != "" {
			keys = append(keys, cacheKeyPrefix+code)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := r.redisClient.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("Failed to invalidate cache", zap.Error(err), zap.Strings("keys", keys))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
