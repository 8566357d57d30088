package dto

import (
	"time"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
)

// RegisterAccountRequest defines the data needed to register a donor account.
type RegisterAccountRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID string             `json:"accountID"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone"`
	Role      domain.AccountRole `json:"role"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: acc.AccountID,
		Name:      acc.Name,
		Email:     acc.Email,
		Phone:     acc.Phone,
		Role:      acc.Role,
		CreatedAt: acc.CreatedAt,
	}
}
