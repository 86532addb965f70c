package mocks

import (
	"context"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// TractateRepository is a mock for catalog.TractateRepository.
type TractateRepository struct {
	mock.Mock
}

func (m *TractateRepository) List(ctx context.Context) ([]catalog.Tractate, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]catalog.Tractate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TractateRepository) Get(ctx context.Context, id string) (*catalog.Tractate, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*catalog.Tractate); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TractateRepository) ListSummaries(ctx context.Context) ([]catalog.TractateSummary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]catalog.TractateSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// PageRepository is a mock covering every page-facing interface: catalog
// reads, seeding, counting and guarded lifecycle updates.
type PageRepository struct {
	mock.Mock
}

func (m *PageRepository) Get(ctx context.Context, id string) (*catalog.Page, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*catalog.Page); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PageRepository) List(ctx context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]catalog.Page); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PageRepository) CountPages(ctx context.Context, status *catalog.PageStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *PageRepository) ReplaceCatalog(ctx context.Context, tractates []catalog.Tractate, pages []catalog.Page) error {
	args := m.Called(ctx, tractates, pages)
	return args.Error(0)
}

func (m *PageRepository) UpdateStatus(ctx context.Context, id string, guard lifecycle.Guard, change lifecycle.Change) error {
	args := m.Called(ctx, id, guard, change)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, entry *activity.LogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.LogEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.LogEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ClaimEmitter is a mock for lifecycle.ClaimEmitter.
type ClaimEmitter struct {
	mock.Mock
}

func (m *ClaimEmitter) EmitClaim(ctx context.Context, event activity.ClaimEvent) (*activity.LogEntry, error) {
	args := m.Called(ctx, event)
	if e, ok := args.Get(0).(*activity.LogEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

// SessionRepository is a mock for user.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *user.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, tokenHash string) (*user.Session, error) {
	args := m.Called(ctx, tokenHash)
	if s, ok := args.Get(0).(*user.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}
