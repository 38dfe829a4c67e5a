package parcel

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	"proshift/services"
	"proshift/types"
	parcelTypes "proshift/types/parcel"
	"proshift/utils"
)

// AdminChecker reports whether a verified email belongs to an admin
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// ParcelController handles parcel submission and the delivery lifecycle
type ParcelController struct {
	Store   database.Store
	Parcels *services.ParcelService
	Perms   AdminChecker
	Waybill WaybillParser
	Logger  *logger.AsyncLogger
}

// NewParcelController creates a new parcel controller. waybill may be nil when
// no vision model is configured.
func NewParcelController(store database.Store, parcels *services.ParcelService, perms AdminChecker, waybill WaybillParser, asyncLogger *logger.AsyncLogger) *ParcelController {
	return &ParcelController{
		Store:   store,
		Parcels: parcels,
		Perms:   perms,
		Waybill: waybill,
		Logger:  asyncLogger,
	}
}

// Helper function to log API requests and responses
func (pc *ParcelController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	pc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (pc *ParcelController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	pc.logAPIRequest(c)
	return result
}

func (pc *ParcelController) badRequest(c *fiber.Ctx, message string) error {
	return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusBadRequest,
	})
}

func (pc *ParcelController) forbidden(c *fiber.Ctx) error {
	return pc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
		Message: "forbidden access",
		Status:  fiber.StatusForbidden,
	})
}

// sendError maps store and lifecycle errors to responses
func (pc *ParcelController) sendError(c *fiber.Ctx, message string, err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Message: "Parcel not found",
			Status:  fiber.StatusNotFound,
		})
	case errors.Is(err, services.ErrTrackingIDTaken):
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Message: "Tracking ID already in use",
			Status:  fiber.StatusConflict,
		})
	case errors.Is(err, services.ErrRiderInTransit),
		errors.Is(err, services.ErrRiderNotActive),
		errors.Is(err, services.ErrRiderMismatch),
		errors.Is(err, services.ErrParcelClosed),
		errors.Is(err, services.ErrCashoutNotAllowed):
		return pc.badRequest(c, err.Error())
	case errors.Is(err, services.ErrNotParcelRider):
		return pc.forbidden(c)
	}

	logger.Error(message, err)
	return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusInternalServerError,
		Error:   err.Error(),
	})
}

// List returns parcels newest first. Ownership of the email filter is
// enforced by middleware.RequireOwner.
func (pc *ParcelController) List(c *fiber.Ctx) error {
	filter := database.ParcelFilter{
		UserEmail:      utils.NormalizeEmail(c.Query("email")),
		PaymentStatus:  c.Query("payment_status"),
		DeliveryStatus: c.Query("delivery_status"),
	}

	parcels, err := pc.Store.ListParcels(c.UserContext(), filter)
	if err != nil {
		return pc.sendError(c, "Failed to fetch parcels", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcels fetched successfully",
		Status:  fiber.StatusOK,
		Data:    parcels,
	})
}

// Get returns one parcel to its owner, its assigned rider or an admin
func (pc *ParcelController) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := utils.CallerEmail(c)

	p, err := pc.Store.FindParcel(ctx, c.Params("id"))
	if err != nil {
		return pc.sendError(c, "Failed to fetch parcel", err)
	}

	if !p.IsOwnedBy(caller) && !p.IsAssignedTo(caller) {
		admin, err := pc.Perms.IsAdmin(ctx, caller)
		if err != nil {
			return pc.sendError(c, "Failed to verify permissions", err)
		}
		if !admin {
			return pc.forbidden(c)
		}
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel fetched successfully",
		Status:  fiber.StatusOK,
		Data:    p,
	})
}

// Create submits a parcel for the verified caller
func (pc *ParcelController) Create(c *fiber.Ctx) error {
	// Parse request body
	var req parcelTypes.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return pc.badRequest(c, "Invalid request body")
	}

	// Validate request using the validation method from types
	if err := types.Validate(req); err != nil {
		return pc.badRequest(c, err.Error())
	}

	p := req.ToModel(time.Now())
	id, err := pc.Parcels.Create(c.UserContext(), &p, utils.CallerEmail(c))
	if err != nil {
		return pc.sendError(c, "Failed to create parcel", err)
	}

	logger.Success("Parcel " + p.TrackingID + " created by " + p.UserEmail)
	return pc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "Parcel created successfully",
		Status:  fiber.StatusCreated,
		Data: parcelTypes.CreateResponse{
			InsertedID: id,
			TrackingID: p.TrackingID,
		},
	})
}

// Delete removes a parcel. Only its owner may delete it.
func (pc *ParcelController) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	p, err := pc.Store.FindParcel(ctx, id)
	if err != nil {
		return pc.sendError(c, "Failed to fetch parcel", err)
	}
	if !p.IsOwnedBy(utils.CallerEmail(c)) {
		return pc.forbidden(c)
	}

	if err := pc.Store.DeleteParcel(ctx, id); err != nil {
		return pc.sendError(c, "Failed to delete parcel", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel deleted successfully",
		Status:  fiber.StatusOK,
	})
}

// StatusCount returns how many parcels sit in each delivery status
func (pc *ParcelController) StatusCount(c *fiber.Ctx) error {
	counts, err := pc.Store.CountParcelsByDeliveryStatus(c.UserContext())
	if err != nil {
		return pc.sendError(c, "Failed to count parcels", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Status count fetched successfully",
		Status:  fiber.StatusOK,
		Data:    counts,
	})
}

// AssignRider hands a pending parcel to an active rider
func (pc *ParcelController) AssignRider(c *fiber.Ctx) error {
	var req parcelTypes.AssignRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return pc.badRequest(c, "Invalid request body")
	}
	if err := types.Validate(req); err != nil {
		return pc.badRequest(c, err.Error())
	}

	id := c.Params("id")
	if err := pc.Parcels.AssignRider(c.UserContext(), id, req, utils.CallerEmail(c)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Message: "Parcel or rider not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return pc.sendError(c, "Failed to assign rider", err)
	}

	logger.Info("Parcel " + id + " assigned to rider " + req.RiderID)
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Rider assigned successfully",
		Status:  fiber.StatusOK,
	})
}

// UpdateStatus lets the assigned rider mark a parcel picked up or delivered
func (pc *ParcelController) UpdateStatus(c *fiber.Ctx) error {
	var req parcelTypes.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return pc.badRequest(c, "Invalid request body")
	}
	if err := types.Validate(req); err != nil {
		return pc.badRequest(c, err.Error())
	}

	err := pc.Parcels.UpdateDeliveryStatus(c.UserContext(), c.Params("id"), req.Status, utils.CallerEmail(c))
	if err != nil {
		return pc.sendError(c, "Failed to update delivery status", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Parcel marked as " + req.Status,
		Status:  fiber.StatusOK,
	})
}

// RequestCashout moves a delivered parcel's cashout to pending
func (pc *ParcelController) RequestCashout(c *fiber.Ctx) error {
	if err := pc.Parcels.RequestCashout(c.UserContext(), c.Params("id"), utils.CallerEmail(c)); err != nil {
		return pc.sendError(c, "Failed to request cashout", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Cashout requested",
		Status:  fiber.StatusOK,
		Data:    fiber.Map{"cashout_status": constants.CashoutPending},
	})
}

// CompleteCashout settles a pending cashout
func (pc *ParcelController) CompleteCashout(c *fiber.Ctx) error {
	if err := pc.Parcels.CompleteCashout(c.UserContext(), c.Params("id")); err != nil {
		return pc.sendError(c, "Failed to complete cashout", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Cashout completed",
		Status:  fiber.StatusOK,
		Data:    fiber.Map{"cashout_status": constants.CashoutCashedOut},
	})
}
