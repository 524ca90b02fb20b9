package repository

import (
	"context"

	"bountyhub/internal/domain/entity"
)

// CancellationRepository reads cancellation records owned by the bounty
// service.
type CancellationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Cancellation, error)
}
