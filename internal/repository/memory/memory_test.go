package memory_test

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/soonerbadges/internal/repository"
	"github.com/vytor/soonerbadges/internal/repository/memory"
	"github.com/vytor/soonerbadges/internal/repository/repotest"
)

func TestMemoryPlayerRepository(t *testing.T) {
	suite.Run(t, &repotest.PlayerRepositorySuite{
		NewRepo: func(*testing.T) repository.PlayerRepository {
			return memory.NewPlayerRepository()
		},
	})
}
