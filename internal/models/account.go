package models

import "time"

// Account is the row shape of the accounts table.
type Account struct {
	AccountID     string    `db:"account_id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	PasswordHash  string    `db:"password_hash"`
	Role          string    `db:"role"`
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}
