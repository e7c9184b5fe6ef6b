// Package prayer tracks the five daily prayers and the virtue reward paid
// for completing each one.
package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/napolitain/village-sim/internal/models"
)

var (
	ErrUnknownPrayer    = errors.New("unknown prayer")
	ErrAlreadyCompleted = errors.New("prayer already completed today")
	ErrInvalidTime      = errors.New("invalid prayer time")
)

const (
	// DefaultReward is the virtue paid per completed prayer
	DefaultReward = 10.0

	// DefaultWindow is how close to its time a prayer is reported as due
	DefaultWindow = 15 * time.Minute
)

// Prayer is a named daily prayer at a fixed local time
type Prayer struct {
	Name   string `json:"name" yaml:"name"`
	Time   string `json:"time" yaml:"time"` // HH:MM
	hour   int
	minute int
}

// At returns the prayer time on the calendar day of now, in now's location
func (p Prayer) At(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, p.hour, p.minute, 0, 0, now.Location())
}

// DefaultSchedule returns Fajr, Dhuhr, Asr, Maghrib and Isha
func DefaultSchedule() []Prayer {
	schedule, _ := ParseSchedule([]Prayer{
		{Name: "Fajr", Time: "05:30"},
		{Name: "Dhuhr", Time: "12:30"},
		{Name: "Asr", Time: "16:00"},
		{Name: "Maghrib", Time: "19:15"},
		{Name: "Isha", Time: "21:00"},
	})
	return schedule
}

// ParseSchedule validates prayer names and HH:MM times
func ParseSchedule(prayers []Prayer) ([]Prayer, error) {
	seen := make(map[string]bool, len(prayers))
	result := make([]Prayer, 0, len(prayers))
	for _, p := range prayers {
		if p.Name == "" {
			return nil, errors.New("prayer without a name")
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate prayer %q", p.Name)
		}
		seen[key] = true

		var h, m int
		if _, err := fmt.Sscanf(p.Time, "%d:%d", &h, &m); err != nil {
			return nil, fmt.Errorf("%w: %s at %q", ErrInvalidTime, p.Name, p.Time)
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return nil, fmt.Errorf("%w: %s at %q", ErrInvalidTime, p.Name, p.Time)
		}
		p.hour, p.minute = h, m
		result = append(result, p)
	}
	return result, nil
}

// Status is a prayer with its completion state for one day
type Status struct {
	Prayer    Prayer    `json:"prayer"`
	At        time.Time `json:"at"`
	Completed bool      `json:"completed"`
}

// Tracker records which prayers were completed on which day
type Tracker struct {
	schedule []Prayer
	reward   float64
	window   time.Duration

	// lower-case prayer name -> date of last completion
	completed map[string]string

	logger zerolog.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithReward sets the virtue paid per prayer
func WithReward(virtue float64) Option {
	return func(t *Tracker) { t.reward = virtue }
}

// WithWindow sets the reminder window used by Due
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) { t.window = d }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = logger.With().Str("component", "prayer").Logger() }
}

// NewTracker creates a tracker for a parsed schedule. A nil schedule uses
// DefaultSchedule.
func NewTracker(schedule []Prayer, opts ...Option) *Tracker {
	if schedule == nil {
		schedule = DefaultSchedule()
	}
	t := &Tracker{
		schedule:  schedule,
		reward:    DefaultReward,
		window:    DefaultWindow,
		completed: make(map[string]string),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func dayKey(now time.Time) string {
	return now.Format(time.DateOnly)
}

func (t *Tracker) lookup(name string) (Prayer, bool) {
	for _, p := range t.schedule {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Prayer{}, false
}

// Complete marks a prayer done for the calendar day of now and returns the
// reward to deposit in the village
func (t *Tracker) Complete(name string, now time.Time) (models.Resources, error) {
	p, ok := t.lookup(name)
	if !ok {
		return models.Resources{}, fmt.Errorf("%w: %q", ErrUnknownPrayer, name)
	}
	key := strings.ToLower(p.Name)
	day := dayKey(now)
	if t.completed[key] == day {
		return models.Resources{}, fmt.Errorf("%w: %s on %s", ErrAlreadyCompleted, p.Name, day)
	}
	t.completed[key] = day

	t.logger.Info().
		Str("prayer", p.Name).
		Str("day", day).
		Float64("virtue_points", t.reward).
		Msg("Prayer completed")

	return models.Resources{VirtuePoints: t.reward}, nil
}

// Completed reports whether the prayer was completed on the day of now
func (t *Tracker) Completed(name string, now time.Time) bool {
	p, ok := t.lookup(name)
	if !ok {
		return false
	}
	return t.completed[strings.ToLower(p.Name)] == dayKey(now)
}

// Due returns the first prayer of the day not yet completed, if now is
// within the reminder window of its time
func (t *Tracker) Due(now time.Time) (Prayer, bool) {
	for _, p := range t.schedule {
		if t.Completed(p.Name, now) {
			continue
		}
		diff := now.Sub(p.At(now))
		if diff < 0 {
			diff = -diff
		}
		if diff <= t.window {
			return p, true
		}
		return Prayer{}, false
	}
	return Prayer{}, false
}

// Today lists the schedule with completion state for the day of now
func (t *Tracker) Today(now time.Time) []Status {
	result := make([]Status, len(t.schedule))
	for i, p := range t.schedule {
		result[i] = Status{
			Prayer:    p,
			At:        p.At(now),
			Completed: t.Completed(p.Name, now),
		}
	}
	return result
}
