package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

const maxProjectNameLength = 200

type ProjectService struct {
	projects ports.ProjectRepository
}

func NewProjectService(projects ports.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	return s.projects.ListByOwner(ctx, ownerID)
}

func (s *ProjectService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, ownerID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Save creates or replaces the project with the given id. The document is
// stored as-is; a missing or null document is stored as an empty object.
func (s *ProjectService) Save(ctx context.Context, ownerID, id uuid.UUID, name string, data json.RawMessage) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if id == uuid.Nil || name == "" || len(name) > maxProjectNameLength {
		return nil, ErrInvalidInput
	}
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	if !json.Valid(data) {
		return nil, ErrInvalidInput
	}

	project, err := s.projects.Upsert(ctx, &domain.Project{
		ID:      id,
		OwnerID: ownerID,
		Name:    name,
		Data:    data,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.projects.Delete(ctx, ownerID, id); err != nil {
		if isNotFound(err) {
			return ErrProjectNotFound
		}
		return err
	}
	return nil
}
