package models

import "fmt"

// Default values applied when a catalog entry omits them
const (
	DefaultMaxLevel        = 3
	DefaultInfluenceRadius = 1
	DefaultAdjacencyBonus  = 1.0
)

// EventKind classifies building events
type EventKind string

const (
	EventCommunity   EventKind = "community"
	EventEducation   EventKind = "education"
	EventCharity     EventKind = "charity"
	EventCelebration EventKind = "celebration"
)

// EventRewards are credited when an event expires
type EventRewards struct {
	Coins        float64 `json:"coins,omitempty" yaml:"coins,omitempty"`
	Knowledge    float64 `json:"knowledge,omitempty" yaml:"knowledge,omitempty"`
	VirtuePoints float64 `json:"virtue_points,omitempty" yaml:"virtue_points,omitempty"`
	Happiness    int     `json:"happiness,omitempty" yaml:"happiness,omitempty"`
}

// Resources returns the balance part of the rewards
func (r EventRewards) Resources() Resources {
	return Resources{Coins: r.Coins, Knowledge: r.Knowledge, VirtuePoints: r.VirtuePoints}
}

// EventRequirements gate starting an event
type EventRequirements struct {
	Level     int       `json:"level,omitempty" yaml:"level,omitempty"`
	Resources Resources `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// EventDefinition is an immutable, catalog-sourced event
type EventDefinition struct {
	ID              string            `json:"id" yaml:"id"`
	Kind            EventKind         `json:"kind" yaml:"kind"`
	Title           string            `json:"title" yaml:"title"`
	Description     string            `json:"description" yaml:"description"`
	DurationSeconds int               `json:"duration_seconds" yaml:"duration_seconds"`
	Rewards         EventRewards      `json:"rewards" yaml:"rewards"`
	Requirements    EventRequirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// BuildingCount is a minimum count of an already placed building type
type BuildingCount struct {
	Type  BuildingType `json:"type" yaml:"type"`
	Count int          `json:"count" yaml:"count"`
}

// UnlockRequirements gate placing a building type
type UnlockRequirements struct {
	Level     int             `json:"level,omitempty" yaml:"level,omitempty"`
	Buildings []BuildingCount `json:"buildings,omitempty" yaml:"buildings,omitempty"`
}

// BuildingDefinition describes a building type and its economics
type BuildingDefinition struct {
	Type          BuildingType `json:"type" yaml:"type"`
	Name          string       `json:"name" yaml:"name"`
	Description   string       `json:"description" yaml:"description"`
	BaseCost      Resources    `json:"base_cost" yaml:"base_cost"`
	BaseYield     Yield        `json:"base_yield" yaml:"base_yield"`
	BaseCapacity  int          `json:"base_capacity" yaml:"base_capacity"`
	SpecialEffect string       `json:"special_effect,omitempty" yaml:"special_effect,omitempty"`

	ConstructionSeconds int          `json:"construction_seconds" yaml:"construction_seconds"`
	Phases              PhaseWeights `json:"phases" yaml:"phases"`

	InfluenceRadius int                `json:"influence_radius,omitempty" yaml:"influence_radius,omitempty"`
	MaxLevel        int                `json:"max_level,omitempty" yaml:"max_level,omitempty"`
	MaxWorkers      int                `json:"max_workers" yaml:"max_workers"`
	AdjacencyBonus  float64            `json:"adjacency_bonus,omitempty" yaml:"adjacency_bonus,omitempty"`
	Requirements    UnlockRequirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Events          []EventDefinition  `json:"events,omitempty" yaml:"events,omitempty"`
}

// LevelCap returns the max level, defaulting to DefaultMaxLevel
func (d *BuildingDefinition) LevelCap() int {
	if d.MaxLevel > 0 {
		return d.MaxLevel
	}
	return DefaultMaxLevel
}

// Influence returns the influence radius, defaulting to DefaultInfluenceRadius
func (d *BuildingDefinition) Influence() int {
	if d.InfluenceRadius > 0 {
		return d.InfluenceRadius
	}
	return DefaultInfluenceRadius
}

// Bonus returns the multiplier this type grants to newly placed neighbours
func (d *BuildingDefinition) Bonus() float64 {
	if d.AdjacencyBonus > 0 {
		return d.AdjacencyBonus
	}
	return DefaultAdjacencyBonus
}

// EventIDs returns the ids of the events offered by this type
func (d *BuildingDefinition) EventIDs() []string {
	ids := make([]string, 0, len(d.Events))
	for _, e := range d.Events {
		ids = append(ids, e.ID)
	}
	return ids
}

// Catalog is the read-only registry of building types
type Catalog struct {
	order  []BuildingType
	byType map[BuildingType]*BuildingDefinition
	events map[string]*EventDefinition
}

// NewCatalog indexes the given definitions, keeping their order
func NewCatalog(defs []BuildingDefinition) (*Catalog, error) {
	c := &Catalog{
		byType: make(map[BuildingType]*BuildingDefinition, len(defs)),
		events: make(map[string]*EventDefinition),
	}
	for i := range defs {
		def := defs[i]
		if def.Type == "" {
			return nil, fmt.Errorf("building definition %d has no type", i)
		}
		if _, dup := c.byType[def.Type]; dup {
			return nil, fmt.Errorf("duplicate building type %q", def.Type)
		}
		if def.MaxWorkers < 1 {
			return nil, fmt.Errorf("building type %q: max_workers must be at least 1", def.Type)
		}
		for j := range def.Events {
			ev := &def.Events[j]
			if _, dup := c.events[ev.ID]; dup {
				return nil, fmt.Errorf("duplicate event id %q", ev.ID)
			}
			c.events[ev.ID] = ev
		}
		c.byType[def.Type] = &def
		c.order = append(c.order, def.Type)
	}
	for _, bt := range c.order {
		for _, req := range c.byType[bt].Requirements.Buildings {
			if _, ok := c.byType[req.Type]; !ok {
				return nil, fmt.Errorf("building type %q requires unknown type %q", bt, req.Type)
			}
		}
	}
	return c, nil
}

// Lookup returns the definition for a building type
func (c *Catalog) Lookup(bt BuildingType) (*BuildingDefinition, error) {
	if def, ok := c.byType[bt]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBuildingType, bt)
}

// Types returns all registered building types in catalog order
func (c *Catalog) Types() []BuildingType {
	return append([]BuildingType(nil), c.order...)
}

// Event returns an event definition by id
func (c *Catalog) Event(id string) (*EventDefinition, bool) {
	ev, ok := c.events[id]
	return ev, ok
}
