package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/prayer"
	"github.com/napolitain/village-sim/internal/village"
)

// Result is the outcome of one applied command
type Result struct {
	Command     Command             `json:"command"`
	Building    *models.Building    `json:"building,omitempty"`
	Event       *models.ActiveEvent `json:"event,omitempty"`
	Settlements []models.Settlement `json:"settlements,omitempty"`
	Reward      *models.Resources   `json:"reward,omitempty"`
	Snapshot    village.Snapshot    `json:"snapshot"`
}

// Session owns a village and its prayer tracker and serializes every access
// to them. Subscribers receive the latest snapshot after each state change.
type Session struct {
	mu      sync.Mutex
	village *village.Village
	prayers *prayer.Tracker

	subMu   sync.Mutex
	subs    map[int]chan village.Snapshot
	nextSub int

	clock func() time.Time

	logger zerolog.Logger
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithClock makes Apply advance the village to clock() before every command.
// Without a clock only the ticker and tick commands move time.
func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

// NewSession wraps a village. A nil tracker uses the default prayer schedule.
func NewSession(v *village.Village, prayers *prayer.Tracker, logger zerolog.Logger, opts ...SessionOption) *Session {
	if prayers == nil {
		prayers = prayer.NewTracker(nil)
	}
	s := &Session{
		village: v,
		prayers: prayers,
		subs:    make(map[int]chan village.Snapshot),
		logger:  logger.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs one command. A rejected command changes nothing and is
// returned with the engine error.
func (s *Session) Apply(cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{Command: cmd}, err
	}

	s.mu.Lock()
	var caughtUp []models.Settlement
	before := s.village.Now()
	if s.clock != nil {
		caughtUp = s.village.Tick(s.clock())
	}
	res, err := s.apply(cmd)
	if err == nil {
		res.Settlements = append(caughtUp, res.Settlements...)
		res.Snapshot = s.village.Snapshot()
		s.publish(res.Snapshot)
	} else if !s.village.Now().Equal(before) {
		s.publish(s.village.Snapshot())
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Info().Err(err).Str("command", cmd.String()).Msg("Command rejected")
		return res, err
	}
	s.logger.Debug().Str("command", cmd.String()).Msg("Command applied")
	return res, nil
}

func (s *Session) apply(cmd Command) (Result, error) {
	res := Result{Command: cmd}
	v := s.village

	switch cmd.Op {
	case OpPlaceBuilding:
		b, err := v.PlaceBuilding(cmd.Type, cmd.X, cmd.Y)
		if err != nil {
			return res, err
		}
		res.Building = b

	case OpUpgradeBuilding, OpAddWorker, OpRemoveWorker:
		id, err := s.resolve(cmd)
		if err != nil {
			return res, err
		}
		var b *models.Building
		switch cmd.Op {
		case OpUpgradeBuilding:
			b, err = v.UpgradeBuilding(id)
		case OpAddWorker:
			b, err = v.AddWorker(id)
		default:
			b, err = v.RemoveWorker(id)
		}
		if err != nil {
			return res, err
		}
		res.Building = b

	case OpStartEvent:
		id, err := s.resolve(cmd)
		if err != nil {
			return res, err
		}
		ev, err := v.StartEvent(id, cmd.EventID)
		if err != nil {
			return res, err
		}
		res.Event = ev

	case OpTick:
		at := cmd.At
		if cmd.Advance != "" {
			d, err := cmd.advance()
			if err != nil {
				return res, err
			}
			at = v.Now().Add(d)
		}
		res.Settlements = v.Tick(at)

	case OpCompletePrayer:
		reward, err := s.prayers.Complete(cmd.Prayer, v.Now())
		if err != nil {
			return res, err
		}
		v.Deposit(reward)
		res.Reward = &reward

	case OpSetLevel:
		if err := v.SetLevel(cmd.Level); err != nil {
			return res, err
		}

	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
	return res, nil
}

func (s *Session) resolve(cmd Command) (string, error) {
	if cmd.BuildingID != "" {
		return cmd.BuildingID, nil
	}
	id, ok, err := s.village.Grid().CellAt(cmd.Cell.X, cmd.Cell.Y)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: nothing at (%d,%d)", models.ErrUnknownBuilding, cmd.Cell.X, cmd.Cell.Y)
	}
	return id, nil
}

// Tick advances the village clock. It is what the server ticker calls.
func (s *Session) Tick(now time.Time) []models.Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.village.Now()
	settled := s.village.Tick(now)
	if !s.village.Now().Equal(before) {
		s.publish(s.village.Snapshot())
	}
	return settled
}

// Run ticks the village every interval with the time returned by clock until
// ctx is cancelled
func (s *Session) Run(ctx context.Context, interval time.Duration, clock func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, st := range s.Tick(clock()) {
				s.logger.Info().
					Str("event", st.Definition).
					Str("building", st.BuildingID).
					Msg("Event finished")
			}
		}
	}
}

// Snapshot returns the current village projection
func (s *Session) Snapshot() village.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.village.Snapshot()
}

// Catalog returns the village's building catalog
func (s *Session) Catalog() *models.Catalog {
	return s.village.Catalog()
}

// DuePrayer returns the prayer currently in its reminder window, if any
func (s *Session) DuePrayer() (prayer.Prayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prayers.Due(s.village.Now())
}

// Prayers returns today's prayer schedule at the village clock
func (s *Session) Prayers() []prayer.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prayers.Today(s.village.Now())
}

// Subscribe registers for snapshots. The channel holds only the latest
// snapshot; a slow reader skips intermediate ones. Call cancel to stop.
func (s *Session) Subscribe() (<-chan village.Snapshot, func()) {
	ch := make(chan village.Snapshot, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish is called with mu held so subscribers see snapshots in order
func (s *Session) publish(snap village.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		// Drop the stale snapshot, if any, then deliver the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
