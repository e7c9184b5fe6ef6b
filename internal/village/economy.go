package village

import (
	"math"
	"sort"
	"time"

	"github.com/napolitain/village-sim/internal/models"
)

// CanAfford reports whether balances cover every component of cost
func CanAfford(cost, balances models.Resources) bool {
	return balances.Covers(cost)
}

// AdjacencyMultiplier multiplies together the bonus of every neighbour.
// Each qualifying neighbour applies independently, so two mosques give 1.2².
// Unknown neighbour types contribute 1.0.
func AdjacencyMultiplier(neighbours []models.BuildingType, catalog *models.Catalog) float64 {
	multiplier := 1.0
	for _, bt := range neighbours {
		def, err := catalog.Lookup(bt)
		if err != nil {
			continue
		}
		multiplier *= def.Bonus()
	}
	return multiplier
}

// UpgradeCost returns the cost of upgrading from level: base × 1.5^level
func UpgradeCost(def *models.BuildingDefinition, level int) models.Resources {
	return def.BaseCost.Scale(math.Pow(UpgradeCostFactor, float64(level)))
}

// TotalYield sums the hourly yield of every building that has finished
// construction at now. Buildings under construction contribute nothing.
func TotalYield(buildings []*models.Building, now time.Time) models.Yield {
	var total models.Yield
	for _, b := range buildings {
		if !IsComplete(b, now) {
			continue
		}
		total = total.Add(b.Yield)
	}
	return total
}

// Accrue returns balances after the buildings produce between from and to.
// The interval is split wherever a building finishes construction, so the
// rate is constant within each piece. Every piece floors each resource at
// zero, which makes the result independent of how the interval is divided.
func Accrue(balances models.Resources, buildings []*models.Building, from, to time.Time) models.Resources {
	if !to.After(from) {
		return balances
	}

	var bounds []time.Time
	for _, b := range buildings {
		if done := b.CompletedAt(); done.After(from) && done.Before(to) {
			bounds = append(bounds, done)
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Before(bounds[j]) })
	bounds = append(bounds, to)

	at := from
	for _, end := range bounds {
		if !end.After(at) {
			continue
		}
		rate := TotalYield(buildings, at)
		balances = balances.Add(rate.Over(end.Sub(at))).ClampZero()
		at = end
	}
	return balances
}

// upgradedCapacity grows capacity by UpgradeCapacityFactor, flooring the result
func upgradedCapacity(capacity int) int {
	return int(math.Floor(float64(capacity) * UpgradeCapacityFactor))
}
