package mocks

import (
	"context"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

var _ ports.Catalog = (*MockCatalog)(nil)

func NewMockCatalog(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalog {
	m := &MockCatalog{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCatalog) FindUser(ctx context.Context, idOrName string) (domain.User, error) {
	args := m.Called(ctx, idOrName)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockCatalog) FindMedia(ctx context.Context, idOrName string, mediaType domain.MediaType) (domain.Media, error) {
	args := m.Called(ctx, idOrName, mediaType)
	return args.Get(0).(domain.Media), args.Error(1)
}

func (m *MockCatalog) FindCharacter(ctx context.Context, idOrName string) (domain.Character, error) {
	args := m.Called(ctx, idOrName)
	return args.Get(0).(domain.Character), args.Error(1)
}

func (m *MockCatalog) SearchMedia(ctx context.Context, query string, mediaType domain.MediaType) ([]domain.Media, error) {
	args := m.Called(ctx, query, mediaType)
	media, _ := args.Get(0).([]domain.Media)
	return media, args.Error(1)
}

func (m *MockCatalog) SearchCharacters(ctx context.Context, query string) ([]domain.Character, error) {
	args := m.Called(ctx, query)
	characters, _ := args.Get(0).([]domain.Character)
	return characters, args.Error(1)
}

func (m *MockCatalog) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	args := m.Called(ctx, query)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *MockCatalog) GetListEntry(ctx context.Context, catalogUserID int, mediaID int) (domain.ListEntry, error) {
	args := m.Called(ctx, catalogUserID, mediaID)
	return args.Get(0).(domain.ListEntry), args.Error(1)
}

func (m *MockCatalog) SeasonalMedia(ctx context.Context, season domain.Season, year int, page int, perPage int) ([]domain.Media, error) {
	args := m.Called(ctx, season, year, page, perPage)
	media, _ := args.Get(0).([]domain.Media)
	return media, args.Error(1)
}

func (m *MockCatalog) TopMedia(ctx context.Context, catalogUserID int, page int, perPage int) ([]domain.TopEntry, error) {
	args := m.Called(ctx, catalogUserID, page, perPage)
	entries, _ := args.Get(0).([]domain.TopEntry)
	return entries, args.Error(1)
}
