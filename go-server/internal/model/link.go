package model

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a short code owned by a user
type Link struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	OriginalURL string    `json:"original_url" db:"original_url" validate:"required,url"`
	ShortCode   string    `json:"short_code" db:"short_code"`
	ClickCount  int64     `json:"click_count" db:"click_count"`
	QRCode      []byte    `json:"-" db:"qr_code"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ClickEvent is one recorded resolution of a short code. Rows are
// append-only and disappear only when the owning link is deleted.
type ClickEvent struct {
	LinkID    uuid.UUID `json:"link_id" db:"link_id"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
