package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

// userRecord is the stored form of domain.User; the domain type hides the
// password hash from JSON.
type userRecord struct {
	ID           uuid.UUID           `json:"id"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	PasswordHash *string             `json:"password_hash,omitempty"`
	PhotoURL     *string             `json:"photo_url,omitempty"`
	Provider     domain.AuthProvider `json:"auth_provider"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func newUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		PhotoURL:     u.PhotoURL,
		Provider:     u.Provider,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		PhotoURL:     r.PhotoURL,
		Provider:     r.Provider,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type UserRepository struct {
	store *Store
}

func NewUserRepo(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create enforces email uniqueness inside the write transaction, so
// concurrent signups for one address resolve to a single winner.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	record := newUserRecord(user)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := r.store.timestamp()
	record.CreatedAt = now
	record.UpdatedAt = now

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket(bucketUsersByEmail)
		if byEmail.Get([]byte(record.Email)) != nil {
			return ports.ErrConflict
		}
		users := tx.Bucket(bucketUsers)
		if users.Get(record.ID[:]) != nil {
			return ports.ErrConflict
		}
		if err := putJSON(users, record.ID[:], record); err != nil {
			return err
		}
		return byEmail.Put([]byte(record.Email), record.ID[:])
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var record userRecord
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if id == nil {
			return ports.ErrNotFound
		}
		found, err := getJSON(tx.Bucket(bucketUsers), id, &record)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("email index points to missing user: %w", ports.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var record userRecord
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketUsers), id[:], &record)
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
	return record.toDomain(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name *string, photoURL *string) (*domain.User, error) {
	record, err := r.update(id, func(rec *userRecord) {
		if name != nil {
			rec.Name = *name
		}
		if photoURL != nil {
			rec.PhotoURL = photoURL
		}
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.update(id, func(rec *userRecord) {
		rec.PasswordHash = &passwordHash
	})
	return err
}

func (r *UserRepository) update(id uuid.UUID, mutate func(*userRecord)) (userRecord, error) {
	var record userRecord
	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		found, err := getJSON(users, id[:], &record)
		if err != nil {
			return err
		}
		if !found {
			return ports.ErrNotFound
		}
		mutate(&record)
		record.UpdatedAt = r.store.timestamp()
		return putJSON(users, id[:], record)
	})
	return record, err
}

var _ ports.UserRepository = (*UserRepository)(nil)
