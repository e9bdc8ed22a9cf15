package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/internal/model"
)

// MockLinkRepository is a mock implementation of repository.LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkRepository) GetByCodeForOwner(ctx context.Context, code string, ownerID uuid.UUID) (*model.Link, error) {
	args := m.Called(ctx, code, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Link, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Link), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, link *model.Link, prevCode string) error {
	args := m.Called(ctx, link, prevCode)
	return args.Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id uuid.UUID, code string) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) SetQRCode(ctx context.Context, id uuid.UUID, png []byte) error {
	args := m.Called(ctx, id, png)
	return args.Error(0)
}

// MockClickRepository is a mock implementation of repository.ClickRepository
type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Append(ctx context.Context, click *model.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) ListTimesByLink(ctx context.Context, linkID uuid.UUID) ([]time.Time, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

// MockRenderer is a mock implementation of qr.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(url string) ([]byte, error) {
	args := m.Called(url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func initTestLogger(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
}
