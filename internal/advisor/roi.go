// Package advisor ranks the next building actions of a village by return on
// investment and plans greedy build orders against a session.
package advisor

import (
	"sort"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

// Scarcity weights are clamped to this range
const (
	minScarcity = 0.5
	maxScarcity = 2.0
)

// Kind is the type of a suggested action
type Kind string

const (
	Place   Kind = "place"
	Upgrade Kind = "upgrade"
)

// Metric represents the components of an ROI calculation
type Metric struct {
	GainPerHour   float64
	TotalCost     float64
	ScarcityBonus float64 // 0.0 = no adjustment, 0.5 = +50% ROI
}

// Calculate computes the final ROI value
func (m Metric) Calculate() float64 {
	if m.TotalCost <= 0 {
		return m.GainPerHour * 1000
	}
	return m.GainPerHour / m.TotalCost * (1.0 + m.ScarcityBonus)
}

// Suggestion is one candidate action with its expected return
type Suggestion struct {
	Kind       Kind                `json:"kind"`
	Type       models.BuildingType `json:"type"`
	Position   models.Position     `json:"position"`
	BuildingID string              `json:"building_id,omitempty"`
	Level      int                 `json:"level"` // level after the action
	Cost       models.Resources    `json:"cost"`
	Gain       models.Yield        `json:"gain"`
	Multiplier float64             `json:"multiplier"`
	ROI        float64             `json:"roi"`
	Affordable bool                `json:"affordable"`
}

// Command returns the command that carries out the suggestion
func (s Suggestion) Command() game.Command {
	if s.Kind == Upgrade {
		return game.Command{Op: game.OpUpgradeBuilding, BuildingID: s.BuildingID}
	}
	return game.Command{Op: game.OpPlaceBuilding, Type: s.Type, X: s.Position.X, Y: s.Position.Y}
}

// Rank returns every placement and upgrade available at snap, best ROI
// first. Placements use the empty cell with the highest adjacency multiplier.
// Actions with no positive return come last, cheapest first.
func Rank(snap village.Snapshot, catalog *models.Catalog) []Suggestion {
	weights := scarcity(snap.Balances)

	var candidates, zeroROI []Suggestion
	add := func(s Suggestion) {
		s.Affordable = snap.Balances.Covers(s.Cost)
		m := metric(s.Gain, s.Cost, weights)
		if m.GainPerHour <= 0 {
			zeroROI = append(zeroROI, s)
			return
		}
		s.ROI = m.Calculate()
		candidates = append(candidates, s)
	}

	pos, multiplier, free := bestCell(snap, catalog)
	for _, bt := range catalog.Types() {
		def, err := catalog.Lookup(bt)
		if !free || err != nil || !unlocked(snap, def) {
			continue
		}
		add(Suggestion{
			Kind:       Place,
			Type:       bt,
			Position:   pos,
			Level:      1,
			Cost:       def.BaseCost,
			Gain:       def.BaseYield.Scale(multiplier),
			Multiplier: multiplier,
		})
	}

	for _, b := range snap.Buildings {
		def, err := catalog.Lookup(b.Type)
		if err != nil || b.Level >= def.LevelCap() {
			continue
		}
		add(Suggestion{
			Kind:       Upgrade,
			Type:       b.Type,
			Position:   b.Position,
			BuildingID: b.ID,
			Level:      b.Level + 1,
			Cost:       village.UpgradeCost(def, b.Level),
			Gain:       b.Yield.Scale(village.UpgradeYieldFactor - 1),
			Multiplier: b.Multiplier,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ROI > candidates[j].ROI
	})
	sort.SliceStable(zeroROI, func(i, j int) bool {
		return total(zeroROI[i].Cost) < total(zeroROI[j].Cost)
	})
	return append(candidates, zeroROI...)
}

// Best returns the highest ROI suggestion the village can afford now
func Best(snap village.Snapshot, catalog *models.Catalog) (Suggestion, bool) {
	for _, s := range Rank(snap, catalog) {
		if s.Affordable && s.ROI > 0 {
			return s, true
		}
	}
	return Suggestion{}, false
}

// metric weighs each resource of the gain by how scarce it is. The raw gain
// is kept as GainPerHour and the weighting becomes the scarcity bonus.
func metric(gain models.Yield, cost models.Resources, w [3]float64) Metric {
	raw := gain.CoinsPerHour + gain.KnowledgePerHour + gain.VirtuePerHour
	weighted := gain.CoinsPerHour*w[0] + gain.KnowledgePerHour*w[1] + gain.VirtuePerHour*w[2]
	m := Metric{GainPerHour: raw, TotalCost: total(cost)}
	if raw > 0 {
		m.ScarcityBonus = weighted/raw - 1.0
	}
	return m
}

// scarcity returns a weight per resource: above 1 for resources below the
// mean balance, below 1 for those above it
func scarcity(b models.Resources) [3]float64 {
	mean := (b.Coins + b.Knowledge + b.VirtuePoints) / 3
	w := [3]float64{1, 1, 1}
	if mean <= 0 {
		return w
	}
	for i, v := range []float64{b.Coins, b.Knowledge, b.VirtuePoints} {
		w[i] = max(minScarcity, min(maxScarcity, mean/(v+1)))
	}
	return w
}

func total(r models.Resources) float64 {
	return r.Coins + r.Knowledge + r.VirtuePoints
}

func unlocked(snap village.Snapshot, def *models.BuildingDefinition) bool {
	req := def.Requirements
	if req.Level > 0 && snap.Level < req.Level {
		return false
	}
	for _, need := range req.Buildings {
		have := 0
		for _, b := range snap.Buildings {
			if b.Type == need.Type {
				have++
			}
		}
		if have < need.Count {
			return false
		}
	}
	return true
}

var neighbourOffsets = []models.Position{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}}

// bestCell returns the empty cell with the highest adjacency multiplier,
// scanning rows top to bottom. ok is false when the grid is full.
func bestCell(snap village.Snapshot, catalog *models.Catalog) (models.Position, float64, bool) {
	var (
		best  models.Position
		bestM float64
		found bool
	)
	for y := 0; y < snap.GridSize; y++ {
		for x := 0; x < snap.GridSize; x++ {
			if _, taken := snap.BuildingAt(x, y); taken {
				continue
			}
			var neighbours []models.BuildingType
			for _, d := range neighbourOffsets {
				if b, ok := snap.BuildingAt(x+d.X, y+d.Y); ok {
					neighbours = append(neighbours, b.Type)
				}
			}
			m := village.AdjacencyMultiplier(neighbours, catalog)
			if !found || m > bestM {
				best, bestM, found = models.Position{X: x, Y: y}, m, true
			}
		}
	}
	return best, bestM, found
}
