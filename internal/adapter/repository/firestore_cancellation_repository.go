package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bountyhub/internal/domain/entity"
	"bountyhub/internal/domain/repository"
	"bountyhub/pkg/errors"
)

const cancellationsCollection = "cancellations"

type firestoreCancellationRepository struct {
	client *firestore.Client
}

func NewFirestoreCancellationRepository(client *firestore.Client) repository.CancellationRepository {
	return &firestoreCancellationRepository{
		client: client,
	}
}

func (r *firestoreCancellationRepository) GetByID(ctx context.Context, id string) (*entity.Cancellation, error) {
	doc, err := r.client.Collection(cancellationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Cancellation", err)
		}
		return nil, errors.Internal("Failed to get cancellation", err)
	}

	var cancellation entity.Cancellation
	if err := doc.DataTo(&cancellation); err != nil {
		return nil, errors.Internal("Failed to parse cancellation data", err)
	}

	return &cancellation, nil
}
