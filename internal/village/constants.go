package village

// Game mechanics constants
const (
	// DefaultGridSize is the side length of the square placement grid
	DefaultGridSize = 8

	// BaseHappiness is the village happiness with no buildings and no events
	BaseHappiness = 50

	// MaxHappiness bounds the derived happiness metric
	MaxHappiness = 100

	// PlacementHappiness is the happiness contribution of a new building
	PlacementHappiness = 5

	// UpgradeHappiness is added to a building's happiness contribution per upgrade
	UpgradeHappiness = 5

	// UpgradeCostFactor compounds the base cost: cost(L) = base × 1.5^L
	UpgradeCostFactor = 1.5

	// UpgradeYieldFactor multiplies a building's hourly yield per upgrade
	UpgradeYieldFactor = 1.5

	// UpgradeCapacityFactor grows capacity per upgrade (floored)
	UpgradeCapacityFactor = 1.3

	// InitialWorkers is the bootstrap worker assigned at placement
	InitialWorkers = 1
)
