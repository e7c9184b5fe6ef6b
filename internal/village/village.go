// Package village implements the village simulation engine: building
// placement on a grid, adjacency bonuses, construction progression, upgrade
// economics, time-bounded events, resource accrual and the derived village
// metrics.
//
// A Village is a deterministic state machine. Time only moves through Tick,
// and commands act at the village clock. Every command validates fully before
// mutating anything, so a failed command leaves the village unchanged.
// A Village is not safe for concurrent use.
package village

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/napolitain/village-sim/internal/models"
)

// Village owns buildings, balances and active events
type Village struct {
	catalog *models.Catalog
	grid    *Grid

	buildings []*models.Building // placement order
	byID      map[string]*models.Building
	events    *EventQueue

	balances      models.Resources
	level         int
	baseHappiness int

	now         time.Time
	lastAccrual time.Time

	newID  func() string
	logger zerolog.Logger
}

// Option configures a Village
type Option func(*Village)

// WithGridSize sets the side length of the grid
func WithGridSize(size int) Option {
	return func(v *Village) { v.grid = NewGrid(size) }
}

// WithBalances sets the starting balances
func WithBalances(r models.Resources) Option {
	return func(v *Village) { v.balances = r }
}

// WithLevel sets the starting village level
func WithLevel(level int) Option {
	return func(v *Village) {
		if level >= 1 {
			v.level = level
		}
	}
}

// WithBaseHappiness overrides BaseHappiness
func WithBaseHappiness(h int) Option {
	return func(v *Village) { v.baseHappiness = h }
}

// WithIDGenerator replaces the uuid generator for building and event ids
func WithIDGenerator(fn func() string) Option {
	return func(v *Village) { v.newID = fn }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Village) { v.logger = logger.With().Str("component", "village").Logger() }
}

// New creates an empty village whose clock starts at start
func New(catalog *models.Catalog, start time.Time, opts ...Option) *Village {
	v := &Village{
		catalog:       catalog,
		grid:          NewGrid(DefaultGridSize),
		byID:          make(map[string]*models.Building),
		events:        NewEventQueue(),
		level:         1,
		baseHappiness: BaseHappiness,
		now:           start,
		lastAccrual:   start,
		newID:         uuid.NewString,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Catalog returns the building catalog
func (v *Village) Catalog() *models.Catalog {
	return v.catalog
}

// Grid returns the placement grid. Callers must treat it as read-only.
func (v *Village) Grid() *Grid {
	return v.grid
}

// Now returns the village clock
func (v *Village) Now() time.Time {
	return v.now
}

// Balances returns the current resource balances
func (v *Village) Balances() models.Resources {
	return v.balances
}

// Level returns the village level
func (v *Village) Level() int {
	return v.level
}

// Building returns a copy of the building with the given id
func (v *Village) Building(id string) (*models.Building, error) {
	b, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBuilding, id)
	}
	return b.Clone(), nil
}

// Buildings returns copies of all buildings in placement order
func (v *Village) Buildings() []*models.Building {
	result := make([]*models.Building, len(v.buildings))
	for i, b := range v.buildings {
		result[i] = b.Clone()
	}
	return result
}

// ActiveEvents returns the running events in start order
func (v *Village) ActiveEvents() []models.ActiveEvent {
	return v.events.Events()
}

// Tick advances the clock to now. Completed buildings accrue resources and
// expired events are settled at their expiry time, in expiry order, so the
// result does not depend on how often Tick runs. A time at or before the
// current clock is a no-op.
func (v *Village) Tick(now time.Time) []models.Settlement {
	if !now.After(v.now) {
		return nil
	}

	balances := v.balances
	at := v.lastAccrual
	var settled []models.Settlement
	for _, e := range v.events.PopExpired(now) {
		if e.ExpiresAt.After(at) {
			balances = Accrue(balances, v.buildings, at, e.ExpiresAt)
			at = e.ExpiresAt
		}
		var s []models.Settlement
		_, balances, s = SettleEvents(e.ExpiresAt, []models.ActiveEvent{e}, balances)
		balances = balances.ClampZero()
		settled = append(settled, s...)
	}
	for _, s := range settled {
		v.logger.Info().
			Str("event", s.Definition).
			Str("building", s.BuildingID).
			Float64("coins", s.Rewards.Coins).
			Float64("knowledge", s.Rewards.Knowledge).
			Float64("virtue_points", s.Rewards.VirtuePoints).
			Int("happiness", s.Rewards.Happiness).
			Msg("Event settled")
	}

	v.balances = Accrue(balances, v.buildings, at, now)
	v.lastAccrual = now
	v.now = now

	v.logger.Debug().
		Time("now", now).
		Float64("coins", v.balances.Coins).
		Float64("knowledge", v.balances.Knowledge).
		Float64("virtue_points", v.balances.VirtuePoints).
		Msg("Tick")

	return settled
}

// PlaceBuilding places a new building of type bt at x,y
func (v *Village) PlaceBuilding(bt models.BuildingType, x, y int) (*models.Building, error) {
	def, err := v.catalog.Lookup(bt)
	if err != nil {
		return nil, err
	}
	if err := v.grid.Check(x, y); err != nil {
		return nil, err
	}
	if !CanAfford(def.BaseCost, v.balances) {
		return nil, fmt.Errorf("%w: %s costs %s, have %s",
			models.ErrInsufficientResources, bt, formatResources(def.BaseCost), formatResources(v.balances))
	}
	if err := v.checkUnlock(def); err != nil {
		return nil, err
	}

	neighbours := make([]models.BuildingType, 0, 4)
	for _, id := range v.grid.Adjacent(x, y) {
		neighbours = append(neighbours, v.byID[id].Type)
	}
	multiplier := AdjacencyMultiplier(neighbours, v.catalog)

	b := &models.Building{
		ID:                   v.newID(),
		Type:                 bt,
		Level:                1,
		Position:             models.Position{X: x, Y: y},
		Yield:                def.BaseYield.Scale(multiplier),
		Multiplier:           multiplier,
		Capacity:             def.BaseCapacity,
		ConstructionStarted:  v.now,
		ConstructionDuration: def.ConstructionSeconds,
		SpecialEffect:        def.SpecialEffect,
		Happiness:            PlacementHappiness,
		Influence:            def.Influence(),
		Workers:              InitialWorkers,
		MaxWorkers:           def.MaxWorkers,
		Events:               def.EventIDs(),
	}

	// Validated above; Place cannot fail here.
	if err := v.grid.Place(b.ID, b.Position); err != nil {
		return nil, err
	}
	v.balances = v.balances.Sub(def.BaseCost)
	v.buildings = append(v.buildings, b)
	v.byID[b.ID] = b

	v.logger.Debug().
		Str("building", b.ID).
		Str("type", string(bt)).
		Int("x", x).
		Int("y", y).
		Float64("multiplier", multiplier).
		Msg("Building placed")

	return b.Clone(), nil
}

func (v *Village) checkUnlock(def *models.BuildingDefinition) error {
	req := def.Requirements
	if req.Level > 0 && v.level < req.Level {
		return &models.RequirementError{
			Kind:     models.RequirementLevel,
			Detail:   fmt.Sprintf("%s requires village level %d", def.Type, req.Level),
			Required: req.Level,
			Actual:   v.level,
		}
	}
	for _, need := range req.Buildings {
		have := v.countType(need.Type)
		if have < need.Count {
			return &models.RequirementError{
				Kind:     models.RequirementBuildings,
				Detail:   fmt.Sprintf("%s requires %d %s", def.Type, need.Count, need.Type),
				Required: need.Count,
				Actual:   have,
			}
		}
	}
	return nil
}

func (v *Village) countType(bt models.BuildingType) int {
	n := 0
	for _, b := range v.buildings {
		if b.Type == bt {
			n++
		}
	}
	return n
}

// UpgradeBuilding raises a building by one level
func (v *Village) UpgradeBuilding(id string) (*models.Building, error) {
	b, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBuilding, id)
	}
	def, err := v.catalog.Lookup(b.Type)
	if err != nil {
		return nil, err
	}
	if b.Level >= def.LevelCap() {
		return nil, fmt.Errorf("%w: %s is level %d", models.ErrMaxLevelReached, b.Type, b.Level)
	}
	cost := UpgradeCost(def, b.Level)
	if !CanAfford(cost, v.balances) {
		return nil, fmt.Errorf("%w: upgrade costs %s, have %s",
			models.ErrInsufficientResources, formatResources(cost), formatResources(v.balances))
	}

	v.balances = v.balances.Sub(cost)
	b.Level++
	b.Yield = b.Yield.Scale(UpgradeYieldFactor)
	b.Capacity = upgradedCapacity(b.Capacity)
	b.Influence++
	b.Happiness += UpgradeHappiness

	v.logger.Debug().
		Str("building", b.ID).
		Str("type", string(b.Type)).
		Int("level", b.Level).
		Msg("Building upgraded")

	return b.Clone(), nil
}

// AddWorker assigns one worker from the village pool to a building
func (v *Village) AddWorker(id string) (*models.Building, error) {
	b, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBuilding, id)
	}
	if b.Workers >= b.MaxWorkers {
		return nil, fmt.Errorf("%w: %d/%d", models.ErrWorkerLimit, b.Workers, b.MaxWorkers)
	}
	if v.AvailableWorkers() <= 0 {
		return nil, models.ErrNoAvailableWorkers
	}
	b.Workers++
	return b.Clone(), nil
}

// RemoveWorker returns one worker from a building to the village pool
func (v *Village) RemoveWorker(id string) (*models.Building, error) {
	b, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBuilding, id)
	}
	if b.Workers <= InitialWorkers {
		return nil, models.ErrWorkerFloor
	}
	b.Workers--
	return b.Clone(), nil
}

// StartEvent activates an event hosted by a building. Required resources are
// checked but not spent; rewards are paid when the event expires.
func (v *Village) StartEvent(buildingID, eventID string) (*models.ActiveEvent, error) {
	b, ok := v.byID[buildingID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBuilding, buildingID)
	}
	def, ok := v.catalog.Event(eventID)
	if !ok || !b.HostsEvent(eventID) {
		return nil, fmt.Errorf("%w: %q at %s", models.ErrUnknownEvent, eventID, b.Type)
	}
	if v.events.Active(eventID) {
		return nil, fmt.Errorf("%w: %q", models.ErrEventAlreadyActive, eventID)
	}
	req := def.Requirements
	if req.Level > 0 && b.Level < req.Level {
		return nil, &models.RequirementError{
			Kind:     models.RequirementLevel,
			Detail:   fmt.Sprintf("%s needs building level %d", eventID, req.Level),
			Required: req.Level,
			Actual:   b.Level,
		}
	}
	if !v.balances.Covers(req.Resources) {
		return nil, &models.RequirementError{
			Kind:   models.RequirementResources,
			Detail: fmt.Sprintf("%s needs %s", eventID, formatResources(req.Resources)),
		}
	}

	ev := models.ActiveEvent{
		ID:         v.newID(),
		Definition: *def,
		BuildingID: b.ID,
		StartedAt:  v.now,
		ExpiresAt:  v.now.Add(time.Duration(def.DurationSeconds) * time.Second),
	}
	v.events.Push(ev)

	v.logger.Debug().
		Str("event", eventID).
		Str("building", b.ID).
		Time("expires_at", ev.ExpiresAt).
		Msg("Event started")

	return &ev, nil
}

// Deposit credits resources earned outside the village, such as prayer
// rewards. Negative components are ignored.
func (v *Village) Deposit(r models.Resources) {
	v.balances = v.balances.Add(r.ClampZero())
}

// SetLevel raises the village level. Levels never decrease.
func (v *Village) SetLevel(level int) error {
	if level < v.level {
		return fmt.Errorf("%w: %d is below current level %d", models.ErrInvalidLevel, level, v.level)
	}
	v.level = level
	return nil
}

// TotalCapacity sums the capacity of all buildings
func (v *Village) TotalCapacity() int {
	total := 0
	for _, b := range v.buildings {
		total += b.Capacity
	}
	return total
}

// Happiness returns base + building contributions + active event rewards,
// clamped to [0, MaxHappiness]
func (v *Village) Happiness() int {
	h := v.baseHappiness
	for _, b := range v.buildings {
		h += b.Happiness
	}
	for _, e := range v.events.Events() {
		h += e.Definition.Rewards.Happiness
	}
	return max(0, min(MaxHappiness, h))
}

// Population is floor(total capacity × happiness / 100)
func (v *Village) Population() int {
	return v.TotalCapacity() * v.Happiness() / 100
}

// AssignedWorkers sums the workers of all buildings
func (v *Village) AssignedWorkers() int {
	total := 0
	for _, b := range v.buildings {
		total += b.Workers
	}
	return total
}

// AvailableWorkers is the population not yet assigned to a building
func (v *Village) AvailableWorkers() int {
	return max(0, v.Population()-v.AssignedWorkers())
}

// TotalYield returns the construction-gated hourly yield of the village
func (v *Village) TotalYield() models.Yield {
	return TotalYield(v.buildings, v.now)
}

func formatResources(r models.Resources) string {
	return fmt.Sprintf("%.0f coins/%.0f knowledge/%.0f virtue", r.Coins, r.Knowledge, r.VirtuePoints)
}
