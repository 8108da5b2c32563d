package models

import (
	"encoding/json"
	"time"
)

// AuditLog records access to student test data.
type AuditLog struct {
	ID        string          `db:"id" json:"id"`
	UserID    *string         `db:"user_id" json:"user_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	Resource  string          `db:"resource" json:"resource"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
