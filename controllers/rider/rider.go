package rider

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	"proshift/services"
	"proshift/types"
	riderTypes "proshift/types/rider"
	"proshift/utils"
)

// RiderController handles rider applications, approval and the rider dashboard
type RiderController struct {
	Store   database.Store
	Riders  *services.RiderService
	Parcels *services.ParcelService
	Logger  *logger.AsyncLogger
}

// NewRiderController creates a new rider controller
func NewRiderController(store database.Store, riders *services.RiderService, parcels *services.ParcelService, asyncLogger *logger.AsyncLogger) *RiderController {
	return &RiderController{
		Store:   store,
		Riders:  riders,
		Parcels: parcels,
		Logger:  asyncLogger,
	}
}

// Helper function to log API requests and responses
func (rc *RiderController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	rc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (rc *RiderController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	rc.logAPIRequest(c)
	return result
}

func (rc *RiderController) badRequest(c *fiber.Ctx, message string) error {
	return rc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusBadRequest,
	})
}

func (rc *RiderController) internalError(c *fiber.Ctx, message string, err error) error {
	logger.Error(message, err)
	return rc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusInternalServerError,
		Error:   err.Error(),
	})
}

func (rc *RiderController) ok(c *fiber.Ctx, message string, data interface{}) error {
	return rc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusOK,
		Data:    data,
	})
}

// Apply submits a rider application for the verified caller
func (rc *RiderController) Apply(c *fiber.Ctx) error {
	// Parse request body
	var req riderTypes.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return rc.badRequest(c, "Invalid request body")
	}

	// Validate request using the validation method from types
	if err := types.Validate(req); err != nil {
		return rc.badRequest(c, err.Error())
	}

	caller := utils.CallerEmail(c)
	if req.Email != "" && !utils.IsOwner(caller, req.Email) {
		return rc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Message: "forbidden access",
			Status:  fiber.StatusForbidden,
		})
	}
	req.Email = caller

	r := req.ToModel(time.Now())
	id, err := rc.Riders.Apply(c.UserContext(), &r)
	if errors.Is(err, services.ErrAlreadyApplied) {
		return rc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Message: "You have already applied",
			Status:  fiber.StatusConflict,
		})
	}
	if err != nil {
		return rc.internalError(c, "Failed to submit application", err)
	}

	logger.Success("Rider application received from " + caller)
	return rc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "Application submitted successfully",
		Status:  fiber.StatusCreated,
		Data:    fiber.Map{"insertedId": id},
	})
}

// Pending lists applications waiting for a decision
func (rc *RiderController) Pending(c *fiber.Ctx) error {
	riders, err := rc.Store.ListRiders(c.UserContext(), database.RiderFilter{Status: constants.RiderPending})
	if err != nil {
		return rc.internalError(c, "Failed to fetch pending riders", err)
	}
	return rc.ok(c, "Pending riders fetched successfully", riders)
}

// Active lists approved riders, optionally filtered by ?search= on name or email
func (rc *RiderController) Active(c *fiber.Ctx) error {
	riders, err := rc.Store.ListRiders(c.UserContext(), database.RiderFilter{
		Status: constants.RiderActive,
		Search: c.Query("search"),
	})
	if err != nil {
		return rc.internalError(c, "Failed to fetch active riders", err)
	}
	return rc.ok(c, "Active riders fetched successfully", riders)
}

// Available lists active riders free to take a parcel in ?district=
func (rc *RiderController) Available(c *fiber.Ctx) error {
	riders, err := rc.Store.ListRiders(c.UserContext(), database.RiderFilter{
		Status:     constants.RiderActive,
		WorkStatus: constants.WorkAvailable,
		District:   c.Query("district"),
	})
	if err != nil {
		return rc.internalError(c, "Failed to fetch available riders", err)
	}
	return rc.ok(c, "Available riders fetched successfully", riders)
}

// UpdateStatus approves, deactivates or rejects a rider
func (rc *RiderController) UpdateStatus(c *fiber.Ctx) error {
	var req riderTypes.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return rc.badRequest(c, "Invalid request body")
	}
	if err := types.Validate(req); err != nil {
		return rc.badRequest(c, err.Error())
	}

	id := c.Params("id")
	err := rc.Riders.SetStatus(c.UserContext(), id, req.Status, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return rc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "Rider not found",
			Status:  fiber.StatusNotFound,
		})
	}
	if errors.Is(err, services.ErrRiderMismatch) {
		return rc.badRequest(c, err.Error())
	}
	if err != nil {
		return rc.internalError(c, "Failed to update rider status", err)
	}

	logger.Info("Rider " + id + " set to " + req.Status + " by " + utils.CallerEmail(c))
	return rc.ok(c, "Rider status updated to "+req.Status, nil)
}

// MyParcels lists the caller's parcels that are still on the road
func (rc *RiderController) MyParcels(c *fiber.Ctx) error {
	parcels, err := rc.Store.ListParcels(c.UserContext(), database.ParcelFilter{
		AssignedRiderEmail: utils.CallerEmail(c),
		DeliveryStatuses:   constants.ActiveDeliveryStatuses,
	})
	if err != nil {
		return rc.internalError(c, "Failed to fetch assigned parcels", err)
	}
	return rc.ok(c, "Assigned parcels fetched successfully", parcels)
}

// Completed lists the caller's delivered parcels with the earning for each
func (rc *RiderController) Completed(c *fiber.Ctx) error {
	parcels, err := rc.Parcels.CompletedParcels(c.UserContext(), utils.CallerEmail(c))
	if err != nil {
		return rc.internalError(c, "Failed to fetch completed parcels", err)
	}
	return rc.ok(c, "Completed parcels fetched successfully", parcels)
}

func (rc *RiderController) Earnings(c *fiber.Ctx) error {
	earnings, err := rc.Parcels.RiderEarnings(c.UserContext(), utils.CallerEmail(c))
	if err != nil {
		return rc.internalError(c, "Failed to compute earnings", err)
	}
	return rc.ok(c, "Earnings fetched successfully", earnings)
}

// Weekly returns delivery counts for the last seven days, oldest first
func (rc *RiderController) Weekly(c *fiber.Ctx) error {
	days, err := rc.Parcels.RiderWeeklyDeliveries(c.UserContext(), utils.CallerEmail(c))
	if err != nil {
		return rc.internalError(c, "Failed to compute weekly deliveries", err)
	}
	return rc.ok(c, "Weekly deliveries fetched successfully", days)
}
