package mocks

import (
	"context"

	"github.com/Bilal292/livedraw/models"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	args := m.Called(ctx, provider, providerId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) AddInk(ctx context.Context, provider string, providerId string, amount int) error {
	args := m.Called(ctx, provider, providerId, amount)
	return args.Error(0)
}

func (m *MockStore) ClaimInk(ctx context.Context, provider string, providerId string, grant int, claimTime int64) error {
	args := m.Called(ctx, provider, providerId, grant, claimTime)
	return args.Error(0)
}

func (m *MockStore) CreateDrawing(ctx context.Context, drawing models.Drawing) error {
	args := m.Called(ctx, drawing)
	return args.Error(0)
}

func (m *MockStore) GetDrawingsPage(ctx context.Context, page int, pageSize int) ([]models.Drawing, bool, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]models.Drawing), args.Bool(1), args.Error(2)
}
