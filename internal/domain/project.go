package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project is an opaque JSON document owned by a single user.
type Project struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OwnerID   uuid.UUID       `db:"owner_id" json:"owner_id"`
	Name      string          `db:"name" json:"name"`
	Data      json.RawMessage `db:"data" json:"data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
