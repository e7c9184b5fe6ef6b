package village

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/village-sim/internal/loader"
	"github.com/napolitain/village-sim/internal/models"
)

func TestCanAfford(t *testing.T) {
	balances := models.Resources{Coins: 50, Knowledge: 10, VirtuePoints: 5}
	assert.True(t, CanAfford(models.Resources{Coins: 50, Knowledge: 10, VirtuePoints: 5}, balances))
	assert.True(t, CanAfford(models.Resources{}, balances))
	assert.False(t, CanAfford(models.Resources{Coins: 50.5}, balances))
	assert.False(t, CanAfford(models.Resources{VirtuePoints: 6}, balances))
}

func TestAdjacencyMultiplier(t *testing.T) {
	catalog, err := loader.DefaultCatalog()
	require.NoError(t, err)

	tests := []struct {
		name       string
		neighbours []models.BuildingType
		want       float64
	}{
		{"none", nil, 1},
		{"mosque", []models.BuildingType{models.Mosque}, 1.2},
		{"two mosques", []models.BuildingType{models.Mosque, models.Mosque}, 1.44},
		{"no bonus types", []models.BuildingType{models.Home, models.Market}, 1},
		{"mixed", []models.BuildingType{models.Garden, models.Library, models.Home}, 1.1 * 1.15},
		{"unknown ignored", []models.BuildingType{"castle", models.Mosque}, 1.2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, AdjacencyMultiplier(tc.neighbours, catalog), 1e-9)
		})
	}
}

func TestUpgradeCost(t *testing.T) {
	def := &models.BuildingDefinition{BaseCost: models.Resources{Coins: 100, Knowledge: 50, VirtuePoints: 20}}

	assert.Equal(t, models.Resources{Coins: 150, Knowledge: 75, VirtuePoints: 30}, UpgradeCost(def, 1))
	assert.Equal(t, models.Resources{Coins: 225, Knowledge: 112.5, VirtuePoints: 45}, UpgradeCost(def, 2))
}

func TestUpgradedCapacity(t *testing.T) {
	assert.Equal(t, 5, upgradedCapacity(4))
	assert.Equal(t, 65, upgradedCapacity(50))
	assert.Equal(t, 1, upgradedCapacity(1))
	assert.Equal(t, 0, upgradedCapacity(0))
}

func TestAccrue(t *testing.T) {
	ready := &models.Building{
		Yield:                models.Yield{CoinsPerHour: 10},
		ConstructionStarted:  t0.Add(-time.Hour),
		ConstructionDuration: 60,
	}
	building := &models.Building{
		Yield:                models.Yield{KnowledgePerHour: 6},
		ConstructionStarted:  t0,
		ConstructionDuration: 1800,
	}
	buildings := []*models.Building{ready, building}

	got := Accrue(models.Resources{}, buildings, t0, t0.Add(time.Hour))
	assert.InDelta(t, 10, got.Coins, 1e-9)
	assert.InDelta(t, 3, got.Knowledge, 1e-9)

	held := models.Resources{Coins: 7}
	assert.Equal(t, held, Accrue(held, buildings, t0, t0))
	assert.Equal(t, held, Accrue(held, buildings, t0.Add(time.Hour), t0))

	assert.Equal(t, models.Yield{CoinsPerHour: 10}, TotalYield(buildings, t0))
	assert.Equal(t, models.Yield{CoinsPerHour: 10, KnowledgePerHour: 6}, TotalYield(buildings, t0.Add(time.Hour)))
}

func TestAccrueFloorsEachSegment(t *testing.T) {
	drain := &models.Building{
		Yield:               models.Yield{CoinsPerHour: -5},
		ConstructionStarted: t0,
	}
	mint := &models.Building{
		Yield:                models.Yield{CoinsPerHour: 10},
		ConstructionStarted:  t0,
		ConstructionDuration: 10 * 3600,
	}
	buildings := []*models.Building{drain, mint}

	// Empty after 4h, flat until the mint finishes at 10h, then +5/h.
	got := Accrue(models.Resources{Coins: 20}, buildings, t0, t0.Add(18*time.Hour))
	assert.InDelta(t, 40, got.Coins, 1e-9)

	stepped := models.Resources{Coins: 20}
	for h := 0; h < 18; h++ {
		from := t0.Add(time.Duration(h) * time.Hour)
		stepped = Accrue(stepped, buildings, from, from.Add(time.Hour))
	}
	assert.InDelta(t, got.Coins, stepped.Coins, 1e-9)
}
