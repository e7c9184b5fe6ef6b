// Package game serializes access to a village and exposes its command
// surface to transports, scripts and the terminal UI.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/napolitain/village-sim/internal/models"
)

// Op names a command
type Op string

const (
	OpPlaceBuilding   Op = "place_building"
	OpUpgradeBuilding Op = "upgrade_building"
	OpAddWorker       Op = "add_worker"
	OpRemoveWorker    Op = "remove_worker"
	OpStartEvent      Op = "start_event"
	OpTick            Op = "tick"
	OpCompletePrayer  Op = "complete_prayer"
	OpSetLevel        Op = "set_level"
)

// Ops lists every command in documentation order
func Ops() []Op {
	return []Op{
		OpPlaceBuilding, OpUpgradeBuilding, OpAddWorker, OpRemoveWorker,
		OpStartEvent, OpTick, OpCompletePrayer, OpSetLevel,
	}
}

var (
	ErrUnknownOp      = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
)

// Command is one request against the village. Only the fields used by Op
// are read.
type Command struct {
	Op Op `json:"op" yaml:"op"`

	// place_building
	Type models.BuildingType `json:"type,omitempty" yaml:"type,omitempty"`
	X    int                 `json:"x,omitempty" yaml:"x,omitempty"`
	Y    int                 `json:"y,omitempty" yaml:"y,omitempty"`

	// upgrade_building, add_worker, remove_worker, start_event. Cell names
	// the building by its grid position instead of its id.
	BuildingID string           `json:"building_id,omitempty" yaml:"building_id,omitempty"`
	Cell       *models.Position `json:"cell,omitempty" yaml:"cell,omitempty"`
	EventID    string           `json:"event_id,omitempty" yaml:"event_id,omitempty"`

	// tick: an absolute time, or an offset from the village clock such as "90s"
	At      time.Time `json:"at,omitempty" yaml:"at,omitempty"`
	Advance string    `json:"advance,omitempty" yaml:"advance,omitempty"`

	Prayer string `json:"prayer,omitempty" yaml:"prayer,omitempty"`
	Level  int    `json:"level,omitempty" yaml:"level,omitempty"`
}

// Validate checks the fields required by Op without touching any state
func (c Command) Validate() error {
	switch c.Op {
	case OpPlaceBuilding:
		if c.Type == "" {
			return fmt.Errorf("%w: %s needs a type", ErrInvalidCommand, c.Op)
		}
	case OpUpgradeBuilding, OpAddWorker, OpRemoveWorker:
		if c.BuildingID == "" && c.Cell == nil {
			return fmt.Errorf("%w: %s needs a building_id or a cell", ErrInvalidCommand, c.Op)
		}
	case OpStartEvent:
		if c.BuildingID == "" && c.Cell == nil {
			return fmt.Errorf("%w: %s needs a building_id or a cell", ErrInvalidCommand, c.Op)
		}
		if c.EventID == "" {
			return fmt.Errorf("%w: %s needs an event_id", ErrInvalidCommand, c.Op)
		}
	case OpTick:
		if c.At.IsZero() == (c.Advance == "") {
			return fmt.Errorf("%w: tick needs exactly one of at or advance", ErrInvalidCommand)
		}
		if c.Advance != "" {
			if _, err := c.advance(); err != nil {
				return err
			}
		}
	case OpCompletePrayer:
		if c.Prayer == "" {
			return fmt.Errorf("%w: %s needs a prayer", ErrInvalidCommand, c.Op)
		}
	case OpSetLevel:
		if c.Level < 1 {
			return fmt.Errorf("%w: level must be at least 1", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
	}
	return nil
}

func (c Command) advance() (time.Duration, error) {
	d, err := time.ParseDuration(c.Advance)
	if err != nil {
		return 0, fmt.Errorf("%w: advance %q: %v", ErrInvalidCommand, c.Advance, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: advance must be positive", ErrInvalidCommand)
	}
	return d, nil
}

// String renders the command for logs and tables
func (c Command) String() string {
	switch c.Op {
	case OpPlaceBuilding:
		return fmt.Sprintf("%s %s at (%d,%d)", c.Op, c.Type, c.X, c.Y)
	case OpUpgradeBuilding, OpAddWorker, OpRemoveWorker:
		return fmt.Sprintf("%s %s", c.Op, c.target())
	case OpStartEvent:
		return fmt.Sprintf("%s %s at %s", c.Op, c.EventID, c.target())
	case OpTick:
		if c.Advance != "" {
			return fmt.Sprintf("%s +%s", c.Op, c.Advance)
		}
		return fmt.Sprintf("%s %s", c.Op, c.At.Format(time.RFC3339))
	case OpCompletePrayer:
		return fmt.Sprintf("%s %s", c.Op, c.Prayer)
	case OpSetLevel:
		return fmt.Sprintf("%s %d", c.Op, c.Level)
	}
	return string(c.Op)
}

func (c Command) target() string {
	if c.BuildingID == "" && c.Cell != nil {
		return fmt.Sprintf("(%d,%d)", c.Cell.X, c.Cell.Y)
	}
	return c.BuildingID
}
