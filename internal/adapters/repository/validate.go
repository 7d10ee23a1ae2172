package repository

import (
	"fmt"

	model "github.com/okian/hangout/internal/domain/model"
)

// ValidateRequest checks the invariants every stored request must hold.
func ValidateRequest(r model.Request) error {
	if r.ID == "" {
		return fmt.Errorf("%w: request without id", ErrInvalidRecord)
	}
	if !r.Stage.IsValid() {
		return fmt.Errorf("%w: request %q has stage %d", ErrInvalidRecord, r.ID, r.Stage)
	}
	if r.Stage == model.StageMatched && r.AssignedEvent == nil {
		return fmt.Errorf("%w: request %q matched without an event", ErrInvalidRecord, r.ID)
	}
	return nil
}

// ValidateReplacement checks that next may overwrite current.
func ValidateReplacement(current, next model.Request) error {
	if err := ValidateRequest(next); err != nil {
		return err
	}
	if next.Stage < current.Stage {
		return fmt.Errorf("%w: request %q stage %s -> %s", ErrInvalidRecord, next.ID, current.Stage, next.Stage)
	}
	if next.Version <= current.Version {
		return fmt.Errorf("%w: request %q version must grow past %d", ErrInvalidRecord, next.ID, current.Version)
	}
	return nil
}

// ValidateEvent checks a catalog event before it is stored.
func ValidateEvent(ev model.CatalogEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("%w: event without id", ErrInvalidRecord)
	}
	if ev.Budget != nil && *ev.Budget < 0 {
		return fmt.Errorf("%w: event %q has negative budget", ErrInvalidRecord, ev.ID)
	}
	return nil
}
