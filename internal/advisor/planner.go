package advisor

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

// DefaultMaxWait bounds how long the planner waits for one action
const DefaultMaxWait = 24 * time.Hour

// Step is one action taken by the planner
type Step struct {
	Suggestion Suggestion       `json:"suggestion"`
	At         time.Time        `json:"at"`
	Waited     time.Duration    `json:"waited"`
	Balances   models.Resources `json:"balances"` // after the action
}

// Planner greedily applies the best ROI action to a session, advancing the
// village clock whenever resources have to accumulate first
type Planner struct {
	session *game.Session
	maxWait time.Duration
	logger  zerolog.Logger
}

// NewPlanner creates a planner. A non-positive maxWait uses DefaultMaxWait.
func NewPlanner(session *game.Session, maxWait time.Duration, logger zerolog.Logger) *Planner {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Planner{
		session: session,
		maxWait: maxWait,
		logger:  logger.With().Str("component", "planner").Logger(),
	}
}

// Plan applies up to steps actions and returns what it did. It stops early
// when no ranked action can be afforded within maxWait.
func (p *Planner) Plan(steps int) ([]Step, error) {
	catalog := p.session.Catalog()
	var plan []Step

	for len(plan) < steps {
		snap := p.session.Snapshot()
		choice, wait, ok := p.next(snap, catalog)
		if !ok {
			p.logger.Debug().Int("steps", len(plan)).Msg("Nothing reachable, stopping")
			break
		}
		if wait > 0 {
			if _, err := p.session.Apply(game.Command{Op: game.OpTick, Advance: wait.String()}); err != nil {
				return plan, fmt.Errorf("advance %s: %w", wait, err)
			}
		}
		res, err := p.session.Apply(choice.Command())
		if err != nil {
			return plan, fmt.Errorf("%s: %w", choice.Command(), err)
		}
		plan = append(plan, Step{
			Suggestion: choice,
			At:         res.Snapshot.Now,
			Waited:     wait,
			Balances:   res.Snapshot.Balances,
		})
		p.logger.Debug().
			Str("action", string(choice.Kind)).
			Str("type", string(choice.Type)).
			Dur("waited", wait).
			Float64("roi", choice.ROI).
			Msg("Planned")
	}
	return plan, nil
}

// next picks the first positive ROI suggestion reachable within maxWait
func (p *Planner) next(snap village.Snapshot, catalog *models.Catalog) (Suggestion, time.Duration, bool) {
	for _, s := range Rank(snap, catalog) {
		if s.ROI <= 0 {
			break
		}
		wait, ok := WaitTime(snap, s.Cost)
		if ok && wait <= p.maxWait {
			return s, wait, true
		}
	}
	return Suggestion{}, 0, false
}

// WaitTime returns how long the village must produce before balances cover
// cost. Buildings still under construction start counting once complete, and
// negative yields drain a balance no lower than zero. ok is false when the
// balances never cover cost.
func WaitTime(snap village.Snapshot, cost models.Resources) (time.Duration, bool) {
	if snap.Balances.Covers(cost) {
		return 0, true
	}

	// The yield only changes when a pending building completes.
	type segment struct {
		start time.Time
		yield models.Yield
	}
	var pending []segment
	current := snap.TotalYield
	for _, b := range snap.Buildings {
		if !b.Productive {
			pending = append(pending, segment{start: b.CompletedAt(), yield: b.Yield})
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].start.Before(pending[j].start)
	})

	balances := snap.Balances
	at := snap.Now
	for {
		end := time.Time{}
		if len(pending) > 0 {
			end = pending[0].start
		}
		if from, until, ok := coverWindow(balances, cost, current); ok {
			d := slack(from)
			if d.Hours() <= until && (end.IsZero() || !at.Add(d).After(end)) {
				return at.Add(d).Sub(snap.Now), true
			}
		}
		if end.IsZero() {
			return 0, false
		}
		balances = balances.Add(current.Over(end.Sub(at))).ClampZero()
		current = current.Add(pending[0].yield)
		at = end
		pending = pending[1:]
	}
}

// coverWindow returns the hours from now during which balances changing at
// rate, floored at zero, cover cost. ok is false when that never happens.
func coverWindow(balances, cost models.Resources, rate models.Yield) (from, until float64, ok bool) {
	until = math.Inf(1)
	check := func(have, need, perHour float64) bool {
		switch {
		case need <= 0:
		case have >= need && perHour >= 0:
		case have >= need:
			until = math.Min(until, (have-need)/-perHour)
		case perHour > 0:
			from = math.Max(from, (need-have)/perHour)
		default:
			return false
		}
		return true
	}
	if !check(balances.Coins, cost.Coins, rate.CoinsPerHour) ||
		!check(balances.Knowledge, cost.Knowledge, rate.KnowledgePerHour) ||
		!check(balances.VirtuePoints, cost.VirtuePoints, rate.VirtuePerHour) {
		return 0, 0, false
	}
	return from, until, from <= until
}

// slack rounds hours up to whole seconds plus one second of slack
func slack(hours float64) time.Duration {
	if hours == 0 {
		return 0
	}
	return time.Duration(math.Ceil(hours*3600)+1) * time.Second
}
