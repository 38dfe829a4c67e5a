package user

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	userModel "proshift/models/user"
	"proshift/types"
	userTypes "proshift/types/user"
	"proshift/utils"
)

const searchLimit = 10

// UserController handles user sign-in bookkeeping and role management
type UserController struct {
	Store  database.Store
	Logger *logger.AsyncLogger
}

// NewUserController creates a new user controller
func NewUserController(store database.Store, asyncLogger *logger.AsyncLogger) *UserController {
	return &UserController{
		Store:  store,
		Logger: asyncLogger,
	}
}

// Helper function to log API requests and responses
func (uc *UserController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	uc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (uc *UserController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	uc.logAPIRequest(c)
	return result
}

func (uc *UserController) internalError(c *fiber.Ctx, message string, err error) error {
	logger.Error(message, err)
	return uc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusInternalServerError,
		Error:   err.Error(),
	})
}

// Upsert records a sign-in. A known email only gets its last_login refreshed.
func (uc *UserController) Upsert(c *fiber.Ctx) error {
	var req userTypes.UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return uc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := types.Validate(req); err != nil {
		return uc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	ctx := c.UserContext()
	email := utils.NormalizeEmail(req.Email)
	now := time.Now()

	_, err := uc.Store.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return uc.internalError(c, "Failed to look up user", err)
	}

	if err == nil {
		return uc.touch(c, email, now)
	}

	id, err := uc.Store.InsertUser(ctx, &userModel.User{
		Email:     email,
		Name:      req.Name,
		Photo:     req.Photo,
		Role:      constants.RoleUser,
		CreatedAt: now,
		LastLogin: now,
	})
	if errors.Is(err, database.ErrDuplicate) {
		// signed in twice at once
		return uc.touch(c, email, now)
	}
	if err != nil {
		return uc.internalError(c, "Failed to create user", err)
	}

	logger.Success("User created: " + email)
	return uc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "User created successfully",
		Status:  fiber.StatusCreated,
		Data:    userTypes.UpsertResponse{Inserted: true, InsertedID: id},
	})
}

func (uc *UserController) touch(c *fiber.Ctx, email string, at time.Time) error {
	if err := uc.Store.TouchLastLogin(c.UserContext(), email, at); err != nil {
		return uc.internalError(c, "Failed to update last login", err)
	}
	return uc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "User already exists",
		Status:  fiber.StatusOK,
		Data:    userTypes.UpsertResponse{Inserted: false},
	})
}

// Search finds users by a case-insensitive email fragment
func (uc *UserController) Search(c *fiber.Ctx) error {
	q := c.Query("email")
	if q == "" {
		return uc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "email query is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	users, err := uc.Store.SearchUsers(c.UserContext(), q, searchLimit)
	if err != nil {
		return uc.internalError(c, "Failed to search users", err)
	}

	return uc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Users fetched successfully",
		Status:  fiber.StatusOK,
		Data:    users,
	})
}

// UpdateRole makes a user admin or demotes them back to user
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	var req userTypes.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return uc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := types.Validate(req); err != nil {
		return uc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	id := c.Params("id")
	err := uc.Store.UpdateUserRole(c.UserContext(), id, req.Role)
	if errors.Is(err, database.ErrNotFound) {
		return uc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}
	if err != nil {
		return uc.internalError(c, "Failed to update role", err)
	}

	logger.Info("Role of user " + id + " set to " + req.Role + " by " + utils.CallerEmail(c))
	return uc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "User role updated to " + req.Role,
		Status:  fiber.StatusOK,
		Data:    userTypes.RoleResponse{Role: req.Role},
	})
}

// GetRole returns the stored role for an email
func (uc *UserController) GetRole(c *fiber.Ctx) error {
	email := utils.NormalizeEmail(c.Params("email"))

	u, err := uc.Store.FindUserByEmail(c.UserContext(), email)
	if errors.Is(err, database.ErrNotFound) {
		return uc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}
	if err != nil {
		return uc.internalError(c, "Failed to get user role", err)
	}

	return uc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Role fetched successfully",
		Status:  fiber.StatusOK,
		Data:    userTypes.RoleResponse{Role: u.Role},
	})
}
