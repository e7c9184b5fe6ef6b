package village

import (
	"time"

	"github.com/napolitain/village-sim/internal/models"
)

// BuildingView is a building with its derived construction status
type BuildingView struct {
	models.Building
	Name       string       `json:"name"`
	Phase      models.Phase `json:"phase"`
	Progress   int          `json:"progress"`
	Productive bool         `json:"productive"`
}

// ActiveEventView is a running event with its time remaining
type ActiveEventView struct {
	ID               string           `json:"id"`
	EventID          string           `json:"event_id"`
	Kind             models.EventKind `json:"kind"`
	Title            string           `json:"title"`
	BuildingID       string           `json:"building_id"`
	StartedAt        time.Time        `json:"started_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
	RemainingSeconds float64          `json:"remaining_seconds"`
}

// Snapshot is a read-only projection of the village at its clock
type Snapshot struct {
	Now              time.Time         `json:"now"`
	Level            int               `json:"level"`
	GridSize         int               `json:"grid_size"`
	Balances         models.Resources  `json:"balances"`
	Buildings        []BuildingView    `json:"buildings"`
	Events           []ActiveEventView `json:"events"`
	Happiness        int               `json:"happiness"`
	Population       int               `json:"population"`
	TotalCapacity    int               `json:"total_capacity"`
	TotalYield       models.Yield      `json:"total_yield"`
	AvailableWorkers int               `json:"available_workers"`
}

// Snapshot returns a deep copy of the village state with derived metrics
func (v *Village) Snapshot() Snapshot {
	s := Snapshot{
		Now:              v.now,
		Level:            v.level,
		GridSize:         v.grid.Size(),
		Balances:         v.balances,
		Buildings:        make([]BuildingView, 0, len(v.buildings)),
		Events:           make([]ActiveEventView, 0, v.events.Len()),
		Happiness:        v.Happiness(),
		Population:       v.Population(),
		TotalCapacity:    v.TotalCapacity(),
		TotalYield:       v.TotalYield(),
		AvailableWorkers: v.AvailableWorkers(),
	}

	for _, b := range v.buildings {
		var weights models.PhaseWeights
		name := string(b.Type)
		if def, err := v.catalog.Lookup(b.Type); err == nil {
			weights = def.Phases
			name = def.Name
		}
		c := ConstructionAt(b.ConstructionStarted, b.ConstructionDuration, weights, v.now)
		s.Buildings = append(s.Buildings, BuildingView{
			Building:   *b.Clone(),
			Name:       name,
			Phase:      c.Phase,
			Progress:   c.Progress,
			Productive: c.Complete(),
		})
	}

	for _, e := range v.events.Events() {
		s.Events = append(s.Events, ActiveEventView{
			ID:               e.ID,
			EventID:          e.Definition.ID,
			Kind:             e.Definition.Kind,
			Title:            e.Definition.Title,
			BuildingID:       e.BuildingID,
			StartedAt:        e.StartedAt,
			ExpiresAt:        e.ExpiresAt,
			RemainingSeconds: e.Remaining(v.now).Seconds(),
		})
	}

	return s
}

// BuildingAt returns the view of the building at x,y, if any
func (s Snapshot) BuildingAt(x, y int) (BuildingView, bool) {
	for _, b := range s.Buildings {
		if b.Position.X == x && b.Position.Y == y {
			return b, true
		}
	}
	return BuildingView{}, false
}
