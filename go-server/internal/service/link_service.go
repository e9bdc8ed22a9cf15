package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/metrics"
	"github.com/linkzip/linkzip/go-server/internal/model"
	"github.com/linkzip/linkzip/go-server/internal/qr"
	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/shortcode"
)

var (
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrCodeGenerationMax signals that random code generation kept
	// losing the uniqueness race. With a 7-char code space this points
	// at an operational problem, not bad luck.
	ErrCodeGenerationMax = errors.New("failed to generate unique code after max attempts")
)

const maxCodeAttempts = 5

// LinkService owns link lifecycle and per-link analytics. The redirect
// hot path lives in RedirectService.
type LinkService struct {
	links    repository.LinkRepository
	clicks   repository.ClickRepository
	renderer qr.Renderer
	baseURL  string
	logger   *zap.Logger
}

func NewLinkService(links repository.LinkRepository, clicks repository.ClickRepository, renderer qr.Renderer, baseURL string) *LinkService {
	return &LinkService{
		links:    links,
		clicks:   clicks,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   zap.L().With(zap.String("component", "LinkService")),
	}
}

type CreateLinkInput struct {
	OwnerID     uuid.UUID
	OriginalURL string
	CustomAlias string
	GenerateQR  bool
}

type UpdateLinkInput struct {
	OriginalURL  string
	CustomAlias  string
	RegenerateQR bool
}

// LinkStats is the per-link analytics view: the authoritative running
// total from the link row plus the raw timestamp series from the
// ledger. The two may disagree after a partial accounting failure.
type LinkStats struct {
	LinkID      uuid.UUID   `json:"link_id"`
	ShortCode   string      `json:"short_code"`
	TotalClicks int64       `json:"total_clicks"`
	ClickTimes  []time.Time `json:"click_times"`
}

// CreateLink validates input, picks a short code and inserts the link.
// Uniqueness is settled by the insert itself: on a random-code
// collision we draw again, on an alias collision the caller gets
// ErrDuplicateCode.
func (s *LinkService) CreateLink(ctx context.Context, in CreateLinkInput) (*model.Link, bool, error) {
	if !isValidURL(in.OriginalURL) {
		return nil, false, ErrInvalidURL
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := shortcode.Generate(in.CustomAlias)
		if err != nil {
			return nil, false, err
		}

		link := &model.Link{
			UserID:      in.OwnerID,
			OriginalURL: in.OriginalURL,
			ShortCode:   code,
		}

		err = s.links.Create(ctx, link)
		if err == nil {
			metrics.LinkCreationTotal.WithLabelValues("ok").Inc()
			qrGenerated := false
			if in.GenerateQR {
				if err := s.attachQRCode(ctx, link); err != nil {
					return nil, false, err
				}
				qrGenerated = true
			}
			return link, qrGenerated, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) && in.CustomAlias == "" {
			// lost the race on a random code, draw another
			s.logger.Info("Random code collision, retrying", zap.String("short_code", code))
			continue
		}
		metrics.LinkCreationTotal.WithLabelValues("error").Inc()
		return nil, false, err
	}

	metrics.LinkCreationTotal.WithLabelValues("error").Inc()
	return nil, false, ErrCodeGenerationMax
}

func (s *LinkService) ListLinks(ctx context.Context, ownerID uuid.UUID) ([]model.Link, error) {
	return s.links.ListByOwner(ctx, ownerID)
}

// Stats returns the analytics view for one of the caller's links.
// Links owned by someone else surface as ErrLinkNotFound, identical to
// links that do not exist.
func (s *LinkService) Stats(ctx context.Context, ownerID uuid.UUID, code string) (*LinkStats, error) {
	link, err := s.links.GetByCodeForOwner(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	times, err := s.clicks.ListTimesByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	return &LinkStats{
		LinkID:      link.ID,
		ShortCode:   link.ShortCode,
		TotalClicks: link.ClickCount,
		ClickTimes:  times,
	}, nil
}

// UpdateLink applies a partial update to one of the caller's links.
// Renaming the code goes through the same unique constraint as
// creation.
func (s *LinkService) UpdateLink(ctx context.Context, ownerID uuid.UUID, code string, in UpdateLinkInput) (*model.Link, error) {
	link, err := s.links.GetByCodeForOwner(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	if in.OriginalURL != "" {
		if !isValidURL(in.OriginalURL) {
			return nil, ErrInvalidURL
		}
		link.OriginalURL = in.OriginalURL
	}
	if in.CustomAlias != "" {
		newCode, err := shortcode.Generate(in.CustomAlias)
		if err != nil {
			return nil, err
		}
		link.ShortCode = newCode
	}

	if err := s.links.Update(ctx, link, code); err != nil {
		return nil, err
	}

	if in.RegenerateQR {
		if err := s.attachQRCode(ctx, link); err != nil {
			return nil, err
		}
	}

	return link, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, ownerID uuid.UUID, code string) error {
	link, err := s.links.GetByCodeForOwner(ctx, code, ownerID)
	if err != nil {
		return err
	}

	return s.links.Delete(ctx, link.ID, link.ShortCode)
}

// QRCodePNG returns the PNG rendering of a link's short URL, using the
// cached payload when one exists and rendering (then caching) otherwise.
func (s *LinkService) QRCodePNG(ctx context.Context, linkID uuid.UUID) ([]byte, string, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, "", err
	}

	if len(link.QRCode) > 0 {
		return link.QRCode, link.ShortCode, nil
	}

	png, err := s.renderer.Render(s.ShortURL(link.ShortCode))
	if err != nil {
		metrics.QRRenderTotal.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("failed to render QR code: %w", err)
	}
	metrics.QRRenderTotal.WithLabelValues("ok").Inc()

	// caching the rendering is an optimization; losing it only means
	// rendering again next time
	if err := s.links.SetQRCode(ctx, link.ID, png); err != nil {
		s.logger.Warn("Failed to cache QR payload", zap.Error(err), zap.String("short_code", link.ShortCode))
	}

	return png, link.ShortCode, nil
}

// ShortURL builds the public short URL for a code.
func (s *LinkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

func (s *LinkService) attachQRCode(ctx context.Context, link *model.Link) error {
	png, err := s.renderer.Render(s.ShortURL(link.ShortCode))
	if err != nil {
		metrics.QRRenderTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to render QR code: %w", err)
	}
	metrics.QRRenderTotal.WithLabelValues("ok").Inc()

	if err := s.links.SetQRCode(ctx, link.ID, png); err != nil {
		return err
	}
	link.QRCode = png
	return nil
}

func isValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return parsed.Scheme != "" && parsed.Host != ""
}
