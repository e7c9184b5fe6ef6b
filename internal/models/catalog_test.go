package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefs() []BuildingDefinition {
	return []BuildingDefinition{
		{
			Type:       Home,
			Name:       "Family Home",
			BaseCost:   Resources{Coins: 50, VirtuePoints: 5},
			MaxWorkers: 2,
		},
		{
			Type:            Mosque,
			Name:            "Mosque",
			MaxWorkers:      6,
			AdjacencyBonus:  1.2,
			MaxLevel:        5,
			InfluenceRadius: 2,
			Events: []EventDefinition{
				{ID: "friday_prayer", DurationSeconds: 60},
			},
		},
	}
}

func TestCatalogLookup(t *testing.T) {
	c, err := NewCatalog(testDefs())
	require.NoError(t, err)

	def, err := c.Lookup(Mosque)
	require.NoError(t, err)
	assert.Equal(t, "Mosque", def.Name)
	assert.Equal(t, 5, def.LevelCap())
	assert.Equal(t, 2, def.Influence())
	assert.InDelta(t, 1.2, def.Bonus(), 1e-9)

	_, err = c.Lookup(BuildingType("castle"))
	assert.True(t, errors.Is(err, ErrUnknownBuildingType))
}

func TestCatalogDefaults(t *testing.T) {
	c, err := NewCatalog(testDefs())
	require.NoError(t, err)

	def, err := c.Lookup(Home)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLevel, def.LevelCap())
	assert.Equal(t, DefaultInfluenceRadius, def.Influence())
	assert.Equal(t, DefaultAdjacencyBonus, def.Bonus())
}

func TestCatalogTypesKeepOrder(t *testing.T) {
	c, err := NewCatalog(testDefs())
	require.NoError(t, err)
	assert.Equal(t, []BuildingType{Home, Mosque}, c.Types())

	ev, ok := c.Event("friday_prayer")
	require.True(t, ok)
	assert.Equal(t, 60, ev.DurationSeconds)
}

func TestNewCatalogRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []BuildingDefinition
	}{
		{"duplicate type", []BuildingDefinition{{Type: Home, MaxWorkers: 1}, {Type: Home, MaxWorkers: 1}}},
		{"missing type", []BuildingDefinition{{MaxWorkers: 1}}},
		{"no workers", []BuildingDefinition{{Type: Home}}},
		{"unknown prerequisite", []BuildingDefinition{{
			Type: Library, MaxWorkers: 1,
			Requirements: UnlockRequirements{Buildings: []BuildingCount{{Type: School, Count: 1}}},
		}}},
		{"duplicate event", []BuildingDefinition{
			{Type: Home, MaxWorkers: 1, Events: []EventDefinition{{ID: "x"}}},
			{Type: Garden, MaxWorkers: 1, Events: []EventDefinition{{ID: "x"}}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.defs)
			assert.Error(t, err)
		})
	}
}

func TestResourcesCovers(t *testing.T) {
	bal := Resources{Coins: 100, Knowledge: 50, VirtuePoints: 20}

	assert.True(t, bal.Covers(Resources{Coins: 100, Knowledge: 50, VirtuePoints: 20}))
	assert.False(t, bal.Covers(Resources{Coins: 150, Knowledge: 75, VirtuePoints: 30}))
	assert.False(t, bal.Covers(Resources{VirtuePoints: 20.5}))
}

func TestPhaseWeightsNormalized(t *testing.T) {
	even := PhaseWeights{}.Normalized()
	assert.InDelta(t, 1.0/3, even.Foundation, 1e-9)

	w := PhaseWeights{Foundation: 2, Structure: 1, Finishing: 1}.Normalized()
	assert.InDelta(t, 0.5, w.Foundation, 1e-9)
	assert.InDelta(t, 0.25, w.Structure, 1e-9)
	assert.InDelta(t, 0.25, w.Finishing, 1e-9)
}

func TestRequirementErrorIs(t *testing.T) {
	err := error(&RequirementError{Kind: RequirementLevel, Required: 3, Actual: 1})
	assert.True(t, errors.Is(err, ErrRequirementNotMet))

	var re *RequirementError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, RequirementLevel, re.Kind)
}
