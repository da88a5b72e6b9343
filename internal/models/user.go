package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the upstream API's buyer profile.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type UserRow struct {
	bun.BaseModel `bun:"table:users"`

	UserID      int64     `bun:"user_id,pk"`
	Email       string    `bun:"email"`
	FirstName   string    `bun:"first_name"`
	LastName    string    `bun:"last_name"`
	Phone       string    `bun:"phone"`
	OrdersCount int       `bun:"orders_count"`
	TotalSpent  float64   `bun:"total_spent"`
	SyncedAt    time.Time `bun:"synced_at"`
}
