package mocks

import (
	"context"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockIdentityStore struct {
	mock.Mock
}

var _ ports.IdentityStore = (*MockIdentityStore)(nil)

func NewMockIdentityStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityStore {
	m := &MockIdentityStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdentityStore) Load(ctx context.Context) (domain.Rosters, error) {
	args := m.Called(ctx)
	rosters, _ := args.Get(0).(domain.Rosters)
	return rosters, args.Error(1)
}

func (m *MockIdentityStore) Save(ctx context.Context, rosters domain.Rosters) error {
	return m.Called(ctx, rosters).Error(0)
}

type MockCredentialStore struct {
	mock.Mock
}

var _ ports.CredentialStore = (*MockCredentialStore)(nil)

func NewMockCredentialStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Put(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockSettingsStore struct {
	mock.Mock
}

var _ ports.SettingsStore = (*MockSettingsStore)(nil)

func NewMockSettingsStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSettingsStore {
	m := &MockSettingsStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsStore) LoadSettings(ctx context.Context) (domain.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Settings), args.Error(1)
}

func (m *MockSettingsStore) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return m.Called(ctx, settings).Error(0)
}
