package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fincore/fincore/internal/auth"
)

// AccountIDKey is the Locals key under which the authenticated account number
// is stored.
const AccountIDKey = "account_id"

// SessionAuth resolves the Authorization bearer token to an account number
// through the auth service and stores it in Locals. Requests without a valid
// session are rejected.
func SessionAuth(authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimPrefix(header, "Bearer ")
		accountID, err := authSvc.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(AccountIDKey, accountID)
		return c.Next()
	}
}
