package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"proshift/httpServices/identity"
	"proshift/logger"
	"proshift/types"
	"proshift/utils"
)

// TokenVerifier validates a bearer token and returns the caller's identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Claims, error)
}

// VerifyToken rejects requests without a valid bearer token. A missing or
// malformed header is 401, a token the provider rejects is 403.
func VerifyToken(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || strings.TrimSpace(tokenParts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "unauthorized access",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := verifier.Verify(c.UserContext(), strings.TrimSpace(tokenParts[1]))
		if err != nil {
			logger.Debug("Token verification failed: " + err.Error())
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Message: "forbidden access",
				Status:  fiber.StatusForbidden,
			})
		}

		claims.Email = utils.NormalizeEmail(claims.Email)
		c.Locals(utils.LocalsClaimsKey, claims)
		return c.Next()
	}
}
