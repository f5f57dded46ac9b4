package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

type resetRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (r resetRecord) toDomain() *domain.PasswordResetToken {
	return &domain.PasswordResetToken{
		ID:        r.ID,
		UserID:    r.UserID,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		Used:      r.Used,
		CreatedAt: r.CreatedAt,
	}
}

type PasswordResetRepository struct {
	store *Store
}

func NewPasswordResetRepo(store *Store) *PasswordResetRepository {
	return &PasswordResetRepository{store: store}
}

func (r *PasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.PasswordResetToken, error) {
	record := resetRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: r.store.timestamp(),
	}
	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		byToken := tx.Bucket(bucketResetsByToken)
		if byToken.Get([]byte(token)) != nil {
			return ports.ErrConflict
		}
		if err := putJSON(tx.Bucket(bucketResets), record.ID[:], record); err != nil {
			return err
		}
		return byToken.Put([]byte(token), record.ID[:])
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *PasswordResetRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordResetToken, error) {
	var record resetRecord
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketResetsByToken).Get([]byte(token))
		if id == nil {
			return ports.ErrNotFound
		}
		found, err := getJSON(tx.Bucket(bucketResets), id, &record)
		if err != nil {
			return err
		}
		if !found || record.Used || !record.ExpiresAt.After(now) {
			return ports.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		resets := tx.Bucket(bucketResets)
		var record resetRecord
		found, err := getJSON(resets, id[:], &record)
		if err != nil {
			return err
		}
		if !found || record.Used {
			return ports.ErrNotFound
		}
		record.Used = true
		return putJSON(resets, id[:], record)
	})
}

func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID uuid.UUID, keep ...uuid.UUID) error {
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		resets := tx.Bucket(bucketResets)
		byToken := tx.Bucket(bucketResetsByToken)

		var doomed []resetRecord
		err := resets.ForEach(func(k, v []byte) error {
			var record resetRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("decode %x: %w", k, err)
			}
			if record.UserID == userID && !containsID(keep, record.ID) {
				doomed = append(doomed, record)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Deleting while iterating with ForEach is not allowed.
		for _, record := range doomed {
			if err := resets.Delete(record.ID[:]); err != nil {
				return err
			}
			if id := byToken.Get([]byte(record.Token)); id != nil && bytes.Equal(id, record.ID[:]) {
				if err := byToken.Delete([]byte(record.Token)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

var _ ports.PasswordResetRepository = (*PasswordResetRepository)(nil)
