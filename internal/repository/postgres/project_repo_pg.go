package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

type ProjectRepository struct {
	db *sqlx.DB
}

// projectRow scans jsonb as raw bytes regardless of how the driver reports it.
type projectRow struct {
	ID        uuid.UUID `db:"id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	Name      string    `db:"name"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p projectRow) toDomain() domain.Project {
	return domain.Project{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Data:      json.RawMessage(p.Data),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	const query = `
		SELECT id, owner_id, name, data, created_at, updated_at
		FROM project
		WHERE owner_id = $1
		ORDER BY updated_at DESC, id DESC
	`
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toDomain())
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	const query = `
		SELECT id, owner_id, name, data, created_at, updated_at
		FROM project
		WHERE id = $1 AND owner_id = $2
	`
	var row projectRow
	if err := r.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		return nil, err
	}
	project := row.toDomain()
	return &project, nil
}

// Upsert refuses to overwrite a row that belongs to another owner; in that
// case no row is returned and sql.ErrNoRows surfaces.
func (r *ProjectRepository) Upsert(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	const query = `
		INSERT INTO project (id, owner_id, name, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    data = EXCLUDED.data,
		    updated_at = NOW()
		WHERE project.owner_id = EXCLUDED.owner_id
		RETURNING id, owner_id, name, data, created_at, updated_at
	`
	var row projectRow
	if err := r.db.GetContext(ctx, &row, query, project.ID, project.OwnerID, project.Name, string(project.Data)); err != nil {
		return nil, err
	}
	saved := row.toDomain()
	return &saved, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const query = `
		DELETE FROM project
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
