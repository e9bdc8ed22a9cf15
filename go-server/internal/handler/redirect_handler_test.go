package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkzip/linkzip/go-server/internal/model"
	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/service"
)

// fakeLinkRepo serves a fixed set of links and counts increments.
type fakeLinkRepo struct {
	mu         sync.Mutex
	links      map[string]*model.Link
	increments map[uuid.UUID]int
}

func newFakeLinkRepo(links ...*model.Link) *fakeLinkRepo {
	byCode := make(map[string]*model.Link)
	for _, l := range links {
		byCode[l.ShortCode] = l
	}
	return &fakeLinkRepo{links: byCode, increments: make(map[uuid.UUID]int)}
}

func (f *fakeLinkRepo) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (f *fakeLinkRepo) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments[id]++
	return nil
}

func (f *fakeLinkRepo) Create(context.Context, *model.Link) error { panic("unused") }
func (f *fakeLinkRepo) GetByCodeForOwner(context.Context, string, uuid.UUID) (*model.Link, error) {
	panic("unused")
}
func (f *fakeLinkRepo) GetByID(context.Context, uuid.UUID) (*model.Link, error) { panic("unused") }
func (f *fakeLinkRepo) ListByOwner(context.Context, uuid.UUID) ([]model.Link, error) {
	panic("unused")
}
func (f *fakeLinkRepo) Update(context.Context, *model.Link, string) error { panic("unused") }
func (f *fakeLinkRepo) Delete(context.Context, uuid.UUID, string) error { panic("unused") }
func (f *fakeLinkRepo) SetQRCode(context.Context, uuid.UUID, []byte) error { panic("unused") }

// fakeClickRepo records appended events.
type fakeClickRepo struct {
	mu     sync.Mutex
	events []model.ClickEvent
}

func (f *fakeClickRepo) Append(ctx context.Context, click *model.ClickEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	click.CreatedAt = time.Now()
	f.events = append(f.events, *click)
	return nil
}

func (f *fakeClickRepo) ListTimesByLink(ctx context.Context, linkID uuid.UUID) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	times := []time.Time{}
	for _, ev := range f.events {
		if ev.LinkID == linkID {
			times = append(times, ev.CreatedAt)
		}
	}
	return times, nil
}

func setupRedirectRouter(links *fakeLinkRepo, clicks *fakeClickRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRedirectHandler(service.NewRedirectService(links, clicks))
	r := gin.New()
	r.GET("/:code", h.Redirect)
	return r
}

func waitForIncrements(t *testing.T, repo *fakeLinkRepo, id uuid.UUID, want int) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		repo.mu.Lock()
		got := repo.increments[id]
		repo.mu.Unlock()
		if got >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("click count never reached %d", want)
}

func TestRedirect_ServesInterstitialAndRecordsClick(t *testing.T) {
	link := &model.Link{ID: uuid.New(), ShortCode: "promo1", OriginalURL: "https://example.com/a"}
	linkRepo := newFakeLinkRepo(link)
	clickRepo := &fakeClickRepo{}
	r := setupRedirectRouter(linkRepo, clickRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/promo1", nil)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "https://example.com/a")

	waitForIncrements(t, linkRepo, link.ID, 1)

	times, err := clickRepo.ListTimesByLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Len(t, times, 1)
}

func TestRedirect_UnknownCodeIs404(t *testing.T) {
	r := setupRedirectRouter(newFakeLinkRepo(), &fakeClickRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing9", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Link not found")
}

func TestRedirect_ReservedCodeIs404(t *testing.T) {
	// even if a row named "api" somehow existed, the code must not resolve
	link := &model.Link{ID: uuid.New(), ShortCode: "api", OriginalURL: "https://example.com/x"}
	linkRepo := newFakeLinkRepo(link)
	r := setupRedirectRouter(linkRepo, &fakeClickRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirect_RepeatedVisitsAccumulate(t *testing.T) {
	link := &model.Link{ID: uuid.New(), ShortCode: "promo1", OriginalURL: "https://example.com/a"}
	linkRepo := newFakeLinkRepo(link)
	clickRepo := &fakeClickRepo{}
	r := setupRedirectRouter(linkRepo, clickRepo)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/promo1", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	waitForIncrements(t, linkRepo, link.ID, 2)

	times, err := clickRepo.ListTimesByLink(context.Background(), link.ID)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.False(t, times[1].Before(times[0]))
}
