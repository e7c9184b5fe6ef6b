package models

import (
	"errors"
	"fmt"
)

// Command rejections. Every failed command leaves the village unchanged.
var (
	ErrUnknownBuildingType   = errors.New("unknown building type")
	ErrOutOfBounds           = errors.New("position out of bounds")
	ErrCellOccupied          = errors.New("cell occupied")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrRequirementNotMet     = errors.New("requirement not met")
	ErrMaxLevelReached       = errors.New("max level reached")
	ErrEventAlreadyActive    = errors.New("event already active")

	ErrUnknownBuilding    = errors.New("unknown building")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrWorkerLimit        = errors.New("worker limit reached")
	ErrWorkerFloor        = errors.New("building needs at least one worker")
	ErrNoAvailableWorkers = errors.New("no available workers")
	ErrInvalidLevel       = errors.New("invalid village level")
)

// RequirementKind says which requirement failed
type RequirementKind string

const (
	RequirementLevel     RequirementKind = "level"
	RequirementBuildings RequirementKind = "buildings"
	RequirementResources RequirementKind = "resources"
)

// RequirementError is returned when an unlock or event requirement fails.
// It matches ErrRequirementNotMet under errors.Is.
type RequirementError struct {
	Kind     RequirementKind
	Detail   string
	Required int
	Actual   int
}

func (e *RequirementError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("requirement not met: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("requirement not met: %s", e.Kind)
}

// Is makes errors.Is(err, ErrRequirementNotMet) true
func (e *RequirementError) Is(target error) bool {
	return target == ErrRequirementNotMet
}
