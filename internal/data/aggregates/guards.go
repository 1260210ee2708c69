package aggregates

import (
	"fmt"
	"strings"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireTransition validates a status move against the transition table.
func RequireTransition(from, to domain.AssetStatus) error {
	if to == "" {
		return ValidationError("target status is required")
	}
	if !domain.CanTransition(from, to) {
		return ConflictError(fmt.Sprintf("status transition %s -> %s not allowed", from, to))
	}
	return nil
}

// RequireCurable checks that a locked asset is an active, non-deleted image of key.
func RequireCurable(a *domain.Asset, key domain.EntityKey) error {
	if a == nil {
		return NotFoundError("asset not found")
	}
	if a.EntityType != key.Type || a.EntityID != key.ID {
		return NotFoundError("asset does not belong to entity")
	}
	if a.FileType != domain.FileImage {
		return NotFoundError("asset is not an image")
	}
	if a.Status != domain.StatusActive || a.DeletedAt != nil {
		return NotFoundError("asset is not active")
	}
	return nil
}
