package middleware

import (
	"context"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// accountIDKey and roleKey hold the authenticated caller on the request context.
const (
	accountIDKey = contextKey("accountID")
	roleKey      = contextKey("role")
)

// GetAccountIDFromContext retrieves the authenticated account id.
// It returns the account id and a boolean indicating if it was found.
func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	return AccountIDFromCtx(c.Request.Context())
}

// AccountIDFromCtx is GetAccountIDFromContext for a standard context.
func AccountIDFromCtx(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	if !ok || accountID == "" {
		return "", false
	}
	return accountID, true
}

// GetRoleFromContext retrieves the authenticated caller's role.
func GetRoleFromContext(c *gin.Context) (domain.AccountRole, bool) {
	role, ok := c.Request.Context().Value(roleKey).(domain.AccountRole)
	return role, ok
}
