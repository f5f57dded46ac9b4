package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

type ProjectRepository struct {
	store *Store
}

func NewProjectRepo(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// Keys are owner id followed by project id so an owner's projects share a
// prefix.
func projectKey(ownerID, id uuid.UUID) []byte {
	key := make([]byte, 0, 32)
	key = append(key, ownerID[:]...)
	return append(key, id[:]...)
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	projects := make([]domain.Project, 0)
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		prefix := ownerID[:]
		c := tx.Bucket(bucketProjects).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var project domain.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return fmt.Errorf("decode project %x: %w", k, err)
			}
			projects = append(projects, project)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketProjects), projectKey(ownerID, id), &project)
		if err != nil {
			return err
		}
		if !found {
			return ports.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Upsert(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	saved := *project
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	now := r.store.timestamp()

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		var existing domain.Project
		found, err := getJSON(projects, projectKey(saved.OwnerID, saved.ID), &existing)
		if err != nil {
			return err
		}
		if found {
			saved.CreatedAt = existing.CreatedAt
		} else {
			if ownedElsewhere(projects, saved.ID) {
				return ports.ErrNotFound
			}
			saved.CreatedAt = now
		}
		saved.UpdatedAt = now
		return putJSON(projects, projectKey(saved.OwnerID, saved.ID), saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		key := projectKey(ownerID, id)
		if projects.Get(key) == nil {
			return ports.ErrNotFound
		}
		return projects.Delete(key)
	})
}

// ownedElsewhere reports whether a project id is already taken by another owner.
func ownedElsewhere(projects *bbolt.Bucket, id uuid.UUID) bool {
	c := projects.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if len(k) == 32 && bytes.Equal(k[16:], id[:]) {
			return true
		}
	}
	return false
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
