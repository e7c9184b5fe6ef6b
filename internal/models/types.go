package models

import (
	"math"
	"time"
)

// ResourceType represents the different resource types in the game
type ResourceType string

const (
	Coins        ResourceType = "coins"
	Knowledge    ResourceType = "knowledge"
	VirtuePoints ResourceType = "virtue_points"
)

// AllResourceTypes returns all resource types
func AllResourceTypes() []ResourceType {
	return []ResourceType{Coins, Knowledge, VirtuePoints}
}

// BuildingType is the catalog tag of a building kind
type BuildingType string

const (
	Mosque        BuildingType = "mosque"
	School        BuildingType = "school"
	Home          BuildingType = "home"
	Market        BuildingType = "market"
	Library       BuildingType = "library"
	Garden        BuildingType = "garden"
	CharityCenter BuildingType = "charity_center"
	CommunityHall BuildingType = "community_hall"
)

// Resources holds an amount of each resource. It is used both for balances
// and for costs; upgrade costs are fractional so amounts are float64.
type Resources struct {
	Coins        float64 `json:"coins" yaml:"coins"`
	Knowledge    float64 `json:"knowledge" yaml:"knowledge"`
	VirtuePoints float64 `json:"virtue_points" yaml:"virtue_points"`
}

// Get returns the amount for a specific resource type
func (r Resources) Get(rt ResourceType) float64 {
	switch rt {
	case Coins:
		return r.Coins
	case Knowledge:
		return r.Knowledge
	case VirtuePoints:
		return r.VirtuePoints
	}
	return 0
}

// Add returns r + o
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Coins:        r.Coins + o.Coins,
		Knowledge:    r.Knowledge + o.Knowledge,
		VirtuePoints: r.VirtuePoints + o.VirtuePoints,
	}
}

// Sub returns r - o
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Coins:        r.Coins - o.Coins,
		Knowledge:    r.Knowledge - o.Knowledge,
		VirtuePoints: r.VirtuePoints - o.VirtuePoints,
	}
}

// Scale multiplies every component by f
func (r Resources) Scale(f float64) Resources {
	return Resources{
		Coins:        r.Coins * f,
		Knowledge:    r.Knowledge * f,
		VirtuePoints: r.VirtuePoints * f,
	}
}

// ClampZero floors every component at zero
func (r Resources) ClampZero() Resources {
	return Resources{
		Coins:        math.Max(0, r.Coins),
		Knowledge:    math.Max(0, r.Knowledge),
		VirtuePoints: math.Max(0, r.VirtuePoints),
	}
}

// Covers reports whether r holds at least cost of every resource
func (r Resources) Covers(cost Resources) bool {
	return cost.Coins <= r.Coins &&
		cost.Knowledge <= r.Knowledge &&
		cost.VirtuePoints <= r.VirtuePoints
}

// Yield is an hourly production rate
type Yield struct {
	CoinsPerHour     float64 `json:"coins_per_hour" yaml:"coins_per_hour"`
	KnowledgePerHour float64 `json:"knowledge_per_hour" yaml:"knowledge_per_hour"`
	VirtuePerHour    float64 `json:"virtue_per_hour" yaml:"virtue_per_hour"`
}

// Add returns y + o
func (y Yield) Add(o Yield) Yield {
	return Yield{
		CoinsPerHour:     y.CoinsPerHour + o.CoinsPerHour,
		KnowledgePerHour: y.KnowledgePerHour + o.KnowledgePerHour,
		VirtuePerHour:    y.VirtuePerHour + o.VirtuePerHour,
	}
}

// Scale multiplies every rate by f
func (y Yield) Scale(f float64) Yield {
	return Yield{
		CoinsPerHour:     y.CoinsPerHour * f,
		KnowledgePerHour: y.KnowledgePerHour * f,
		VirtuePerHour:    y.VirtuePerHour * f,
	}
}

// Over returns the resources produced at this rate during d
func (y Yield) Over(d time.Duration) Resources {
	hours := d.Hours()
	return Resources{
		Coins:        y.CoinsPerHour * hours,
		Knowledge:    y.KnowledgePerHour * hours,
		VirtuePoints: y.VirtuePerHour * hours,
	}
}

// Position is a grid cell
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Phase is a construction phase
type Phase string

const (
	PhaseFoundation Phase = "foundation"
	PhaseStructure  Phase = "structure"
	PhaseFinishing  Phase = "finishing"
	PhaseComplete   Phase = "complete"
)

// PhaseWeights splits a construction duration into its three sub-phases.
// Weights are relative; they are normalized against their sum.
type PhaseWeights struct {
	Foundation float64 `json:"foundation" yaml:"foundation"`
	Structure  float64 `json:"structure" yaml:"structure"`
	Finishing  float64 `json:"finishing" yaml:"finishing"`
}

// Normalized returns the weights as fractions summing to 1. Zero or negative
// weights fall back to an even split.
func (p PhaseWeights) Normalized() PhaseWeights {
	sum := p.Foundation + p.Structure + p.Finishing
	if p.Foundation < 0 || p.Structure < 0 || p.Finishing < 0 || sum <= 0 {
		return PhaseWeights{Foundation: 1.0 / 3, Structure: 1.0 / 3, Finishing: 1.0 / 3}
	}
	return PhaseWeights{
		Foundation: p.Foundation / sum,
		Structure:  p.Structure / sum,
		Finishing:  p.Finishing / sum,
	}
}

// Building is a placed building instance
type Building struct {
	ID       string       `json:"id"`
	Type     BuildingType `json:"type"`
	Level    int          `json:"level"`
	Position Position     `json:"position"`

	// Yield is frozen at placement (base × adjacency multiplier) and only
	// changes on upgrade.
	Yield    Yield `json:"yield"`
	Capacity int   `json:"capacity"`

	ConstructionStarted  time.Time `json:"construction_started"`
	ConstructionDuration int       `json:"construction_duration"` // seconds
	Multiplier           float64   `json:"multiplier"`

	SpecialEffect string `json:"special_effect,omitempty"`
	Happiness     int    `json:"happiness"`
	Influence     int    `json:"influence"`
	Workers       int    `json:"workers"`
	MaxWorkers    int    `json:"max_workers"`

	Events []string `json:"events,omitempty"` // event definition ids hosted here
}

// CompletedAt returns when construction finishes
func (b *Building) CompletedAt() time.Time {
	return b.ConstructionStarted.Add(time.Duration(b.ConstructionDuration) * time.Second)
}

// HostsEvent reports whether the building offers the given event definition
func (b *Building) HostsEvent(id string) bool {
	for _, e := range b.Events {
		if e == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (b *Building) Clone() *Building {
	c := *b
	c.Events = append([]string(nil), b.Events...)
	return &c
}
