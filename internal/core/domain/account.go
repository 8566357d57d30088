package domain

import "time"

// AccountRole gates what an authenticated caller may do with payments.
type AccountRole string

const (
	RoleUser  AccountRole = "user"
	RoleAdmin AccountRole = "admin"
)

func (r AccountRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a donor or administrator in the account directory.
type Account struct {
	AccountID    string      `json:"accountID"` // Primary Key (UUID)
	Name         string      `json:"name"`
	Email        string      `json:"email"` // Unique
	Phone        string      `json:"phone"`
	PasswordHash string      `json:"-"`
	Role         AccountRole `json:"role"`
	AuditFields
}

// Payer holds the contact fields the gateway form needs.
type Payer struct {
	DisplayName string
	Email       string
	Phone       string
}

// Payer projects the account onto the fields shown on the payment form.
func (a Account) Payer() Payer {
	return Payer{DisplayName: a.Name, Email: a.Email, Phone: a.Phone}
}

// AuditFields records who created and last changed a directory entry.
// CreatedBy is "self" for self-registered accounts.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}
