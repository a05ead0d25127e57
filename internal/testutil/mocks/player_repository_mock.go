package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/soonerbadges/internal/models"
)

// MockPlayerRepository is a mock implementation of repository.PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error) {
	args := m.Called(ctx, userID)
	var stats *models.PlayerStats
	if v := args.Get(0); v != nil {
		stats = v.(*models.PlayerStats)
	}
	var earned models.Set
	if v := args.Get(1); v != nil {
		earned = v.(models.Set)
	}
	return stats, earned, args.Error(2)
}

func (m *MockPlayerRepository) Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error {
	args := m.Called(ctx, stats, earned)
	return args.Error(0)
}

func (m *MockPlayerRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPlayerRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
