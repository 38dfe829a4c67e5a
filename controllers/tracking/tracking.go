package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	trackingModel "proshift/models/tracking"
	"proshift/types"
	trackingTypes "proshift/types/tracking"
	"proshift/utils"
)

// AdminChecker reports whether a verified email belongs to an admin
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// TrackingController exposes parcel tracking history
type TrackingController struct {
	Store  database.Store
	Perms  AdminChecker
	Logger *logger.AsyncLogger
}

// NewTrackingController creates a new tracking controller
func NewTrackingController(store database.Store, perms AdminChecker, asyncLogger *logger.AsyncLogger) *TrackingController {
	return &TrackingController{
		Store:  store,
		Perms:  perms,
		Logger: asyncLogger,
	}
}

// Helper function to log API requests and responses
func (tc *TrackingController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	tc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (tc *TrackingController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	tc.logAPIRequest(c)
	return result
}

func (tc *TrackingController) send(c *fiber.Ctx, status int, message string) error {
	return tc.sendResponseWithLog(c, status, types.ApiResponse{
		Message: message,
		Status:  status,
	})
}

func (tc *TrackingController) internalError(c *fiber.Ctx, message string, err error) error {
	logger.Error(message, err)
	return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusInternalServerError,
		Error:   err.Error(),
	})
}

// Get returns a tracking record to the parcel owner or an admin
func (tc *TrackingController) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := utils.CallerEmail(c)

	t, err := tc.Store.FindTracking(ctx, c.Params("trackingId"))
	if errors.Is(err, database.ErrNotFound) {
		return tc.send(c, fiber.StatusNotFound, "Tracking record not found")
	}
	if err != nil {
		return tc.internalError(c, "Failed to fetch tracking record", err)
	}

	if !utils.IsOwner(caller, t.UserEmail) {
		admin, err := tc.Perms.IsAdmin(ctx, caller)
		if err != nil {
			return tc.internalError(c, "Failed to verify permissions", err)
		}
		if !admin {
			return tc.send(c, fiber.StatusForbidden, "forbidden access")
		}
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Tracking record fetched successfully",
		Status:  fiber.StatusOK,
		Data:    t,
	})
}

// Append adds a history entry. Riders may only update parcels assigned to them.
func (tc *TrackingController) Append(c *fiber.Ctx) error {
	// Parse request body
	var req trackingTypes.AppendRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.send(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// Validate request using the validation method from types
	if err := types.Validate(req); err != nil {
		return tc.send(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	caller := utils.CallerEmail(c)

	t, err := tc.Store.FindTracking(ctx, req.TrackingID)
	if errors.Is(err, database.ErrNotFound) {
		return tc.send(c, fiber.StatusNotFound, "Tracking record not found")
	}
	if err != nil {
		return tc.internalError(c, "Failed to fetch tracking record", err)
	}

	if role, _ := c.Locals("role").(string); role == constants.RoleRider {
		p, err := tc.Store.FindParcel(ctx, t.ParcelID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return tc.internalError(c, "Failed to fetch parcel", err)
		}
		if p == nil || !p.IsAssignedTo(caller) {
			return tc.send(c, fiber.StatusForbidden, "forbidden access")
		}
	}

	err = tc.Store.AppendTracking(ctx, req.TrackingID, trackingModel.Event{
		Status:    req.Status,
		Details:   req.Details,
		Location:  req.Location,
		UpdatedBy: caller,
		Timestamp: time.Now(),
	})
	if errors.Is(err, database.ErrNotFound) {
		return tc.send(c, fiber.StatusNotFound, "Tracking record not found")
	}
	if err != nil {
		return tc.internalError(c, "Failed to update tracking", err)
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Tracking updated successfully",
		Status:  fiber.StatusOK,
		Data:    fiber.Map{"currentStatus": req.Status},
	})
}
