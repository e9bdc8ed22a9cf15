package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/metrics"
	"github.com/linkzip/linkzip/go-server/internal/model"
	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/shortcode"
)

const recordVisitTimeout = 5 * time.Second

// ClickMeta is the requester metadata stored with each click event.
type ClickMeta struct {
	IP        string
	UserAgent string
}

// RedirectService resolves short codes into redirect targets and
// accounts for the visit. Click accounting is best-effort: a failed
// counter increment or ledger append is logged and counted, never
// surfaced, and never blocks the redirect. The aggregate count and the
// ledger can therefore diverge under partial failure; that divergence
// is accepted, not reconciled.
type RedirectService struct {
	links  repository.LinkRepository
	clicks repository.ClickRepository
	logger *zap.Logger

	// recordAsync is flipped off in tests that need deterministic
	// click accounting.
	recordAsync bool
}

func NewRedirectService(links repository.LinkRepository, clicks repository.ClickRepository) *RedirectService {
	return &RedirectService{
		links:       links,
		clicks:      clicks,
		logger:      zap.L().With(zap.String("component", "RedirectService")),
		recordAsync: true,
	}
}

// Resolve translates one inbound short code into its target URL,
// recording the visit on the way out. Unknown, malformed and reserved
// codes all resolve to ErrLinkNotFound and record nothing.
func (s *RedirectService) Resolve(ctx context.Context, code string, meta ClickMeta) (string, error) {
	if shortcode.Reserved(code) || !shortcode.Valid(code) {
		return "", repository.ErrLinkNotFound
	}

	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		metrics.RedirectTotal.WithLabelValues("not_found").Inc()
		return "", err
	}

	if s.recordAsync {
		// Detached from the request context: the user's redirect must
		// not wait on, or be cancelled together with, the accounting
		// writes.
		go s.recordVisit(link, meta)
	} else {
		s.recordVisit(link, meta)
	}

	metrics.RedirectTotal.WithLabelValues("ok").Inc()
	return link.OriginalURL, nil
}

// recordVisit performs the two accounting writes for one resolved
// redirect: the atomic counter increment and the ledger append. The
// writes are independent; either may fail without rolling back the
// other.
func (s *RedirectService) recordVisit(link *model.Link, meta ClickMeta) {
	ctx, cancel := context.WithTimeout(context.Background(), recordVisitTimeout)
	defer cancel()

	if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
		metrics.ClickRecordFailures.WithLabelValues("counter").Inc()
		s.logger.Warn("Failed to increment click count",
			zap.Error(err),
			zap.String("short_code", link.ShortCode),
		)
	}

	click := &model.ClickEvent{
		LinkID:    link.ID,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.clicks.Append(ctx, click); err != nil {
		metrics.ClickRecordFailures.WithLabelValues("ledger").Inc()
		s.logger.Warn("Failed to append click event",
			zap.Error(err),
			zap.String("short_code", link.ShortCode),
		)
	}
}
