package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/logger"
	"proshift/services"
	"proshift/types"
	"proshift/utils"
)

// RoleChecker decides whether a verified email holds a role
type RoleChecker interface {
	Check(ctx context.Context, email, role string) (services.Permission, error)
}

// RequireRole must run after VerifyToken. It loads the caller's stored role
// and rejects anyone who does not hold role.
func RequireRole(perms RoleChecker, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := utils.CallerEmail(c)
		if email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "unauthorized access",
				Status:  fiber.StatusUnauthorized,
			})
		}

		permission, err := perms.Check(c.UserContext(), email, role)
		if err != nil {
			logger.Error("Failed to check role for "+email, err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Failed to verify permissions",
				Status:  fiber.StatusInternalServerError,
				Error:   err.Error(),
			})
		}
		if !permission.Granted {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Message: "forbidden access",
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals("role", permission.Role)
		return c.Next()
	}
}

// RequireAnyRole lets the request through when the caller holds at least one of roles
func RequireAnyRole(perms RoleChecker, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := utils.CallerEmail(c)
		if email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "unauthorized access",
				Status:  fiber.StatusUnauthorized,
			})
		}

		for _, role := range roles {
			permission, err := perms.Check(c.UserContext(), email, role)
			if err != nil {
				logger.Error("Failed to check role for "+email, err)
				return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
					Message: "Failed to verify permissions",
					Status:  fiber.StatusInternalServerError,
					Error:   err.Error(),
				})
			}
			if permission.Granted {
				c.Locals("role", permission.Role)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "forbidden access",
			Status:  fiber.StatusForbidden,
		})
	}
}

// RequireOwner guards list endpoints filtered by ?email=. A present email must
// be the caller's own; listing without one is reserved for admins.
func RequireOwner(perms RoleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := utils.CallerEmail(c)
		if caller == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "unauthorized access",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if email := c.Query("email"); email != "" {
			if !utils.IsOwner(caller, email) {
				return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
					Message: "forbidden access",
					Status:  fiber.StatusForbidden,
				})
			}
			return c.Next()
		}

		return RequireRole(perms, constants.RoleAdmin)(c)
	}
}
