package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/domain"
)

type ProjectRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error)
	Upsert(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
