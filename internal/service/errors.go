package service

import (
	"errors"

	"careercraft/internal/database"
	"careercraft/internal/domain"
)

// repoError translates datastore sentinels into domain errors. Anything
// unrecognised becomes a persistence error.
func repoError(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		return domain.NotFound(what + " not found")
	case errors.Is(err, database.ErrSlotTaken):
		return domain.SlotConflict("This time slot is already booked. Please choose a different time.")
	case errors.Is(err, database.ErrDuplicateEmail):
		return domain.Validation("Email already exists")
	case errors.Is(err, database.ErrConcurrentModification):
		return domain.Validation(what + " was changed by another request, reload and retry")
	default:
		return domain.Persistence("failed to save "+what, err)
	}
}
