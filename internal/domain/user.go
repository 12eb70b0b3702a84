package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	FirstName    sql.NullString `json:"first_name" db:"first_name"`
	LastName     sql.NullString `json:"last_name" db:"last_name"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time     `json:"deleted_at" db:"deleted_at"`
}
