package service

import (
	"errors"

	"github.com/spec-kit/erp-desk/internal/repository"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

// mapRepoError converts repository sentinels into domain errors for resource.
func mapRepoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrColumnMismatch):
		return apperrors.NewValidationError("ticket ids do not match the column", details)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict(resource+" is still referenced", details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	case errors.Is(err, repository.ErrSerialization):
		return apperrors.NewTransient("concurrent update, please retry", err)
	}
	return apperrors.MapError(err)
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
