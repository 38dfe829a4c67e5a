package payment

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/database"
	paymentClient "proshift/httpServices/payment"
	"proshift/logger"
	"proshift/services"
	"proshift/types"
	paymentTypes "proshift/types/payment"
	"proshift/utils"
)

// PaymentProcessor creates payment intents with the card processor
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amount float64, currency, parcelID string) (*paymentClient.Intent, error)
}

// PaymentController handles payment intents and the payment history
type PaymentController struct {
	Store     database.Store
	Parcels   *services.ParcelService
	Processor PaymentProcessor
	Logger    *logger.AsyncLogger
}

// NewPaymentController creates a new payment controller
func NewPaymentController(store database.Store, parcels *services.ParcelService, processor PaymentProcessor, asyncLogger *logger.AsyncLogger) *PaymentController {
	return &PaymentController{
		Store:     store,
		Parcels:   parcels,
		Processor: processor,
		Logger:    asyncLogger,
	}
}

// Helper function to log API requests and responses
func (pc *PaymentController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	pc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (pc *PaymentController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	pc.logAPIRequest(c)
	return result
}

func (pc *PaymentController) send(c *fiber.Ctx, status int, message string) error {
	return pc.sendResponseWithLog(c, status, types.ApiResponse{
		Message: message,
		Status:  status,
	})
}

func (pc *PaymentController) internalError(c *fiber.Ctx, message string, err error) error {
	logger.Error(message, err)
	return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Message: message,
		Status:  fiber.StatusInternalServerError,
		Error:   err.Error(),
	})
}

// CreateIntent opens a card payment for one of the caller's unpaid parcels
func (pc *PaymentController) CreateIntent(c *fiber.Ctx) error {
	// Parse request body
	var req paymentTypes.CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return pc.send(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// Validate request using the validation method from types
	if err := types.Validate(req); err != nil {
		return pc.send(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	p, err := pc.Store.FindParcel(ctx, req.ParcelID)
	if errors.Is(err, database.ErrNotFound) {
		return pc.send(c, fiber.StatusNotFound, "Parcel not found")
	}
	if err != nil {
		return pc.internalError(c, "Failed to fetch parcel", err)
	}
	if !p.IsOwnedBy(utils.CallerEmail(c)) {
		return pc.send(c, fiber.StatusForbidden, "forbidden access")
	}
	if p.PaymentStatus == constants.PaymentPaid {
		return pc.send(c, fiber.StatusBadRequest, "Parcel is already paid")
	}
	if paymentClient.ToMinorUnits(req.Amount) != paymentClient.ToMinorUnits(p.TotalCost) {
		return pc.send(c, fiber.StatusBadRequest, "Amount does not match parcel cost")
	}

	intent, err := pc.Processor.CreateIntent(ctx, req.Amount, req.Currency, req.ParcelID)
	if errors.Is(err, paymentClient.ErrNotConfigured) {
		return pc.send(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}
	if err != nil {
		logger.Error("Payment processor rejected intent for parcel "+req.ParcelID, err)
		return pc.sendResponseWithLog(c, fiber.StatusBadGateway, types.ApiResponse{
			Message: "Failed to create payment intent",
			Status:  fiber.StatusBadGateway,
			Error:   err.Error(),
		})
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Payment intent created",
		Status:  fiber.StatusOK,
		Data:    paymentTypes.CreateIntentResponse{ClientSecret: intent.ClientSecret},
	})
}

// Record stores a confirmed payment and marks the parcel paid
func (pc *PaymentController) Record(c *fiber.Ctx) error {
	var req paymentTypes.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return pc.send(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := types.Validate(req); err != nil {
		return pc.send(c, fiber.StatusBadRequest, err.Error())
	}
	if !utils.IsOwner(utils.CallerEmail(c), req.Email) {
		return pc.send(c, fiber.StatusForbidden, "forbidden access")
	}

	id, err := pc.Parcels.RecordPayment(c.UserContext(), req)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return pc.send(c, fiber.StatusNotFound, "Parcel not found")
	case errors.Is(err, services.ErrNotParcelOwner):
		return pc.send(c, fiber.StatusForbidden, "forbidden access")
	case errors.Is(err, services.ErrAlreadyPaid):
		return pc.send(c, fiber.StatusBadRequest, "Parcel is already paid")
	case err != nil:
		return pc.internalError(c, "Failed to record payment", err)
	}

	logger.Success("Payment " + req.TransactionID + " recorded for parcel " + req.ParcelID)
	return pc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "Payment recorded successfully",
		Status:  fiber.StatusCreated,
		Data:    fiber.Map{"insertedId": id},
	})
}

// List returns payments newest first. Ownership of the email filter is
// enforced by middleware.RequireOwner.
func (pc *PaymentController) List(c *fiber.Ctx) error {
	payments, err := pc.Store.ListPayments(c.UserContext(), utils.NormalizeEmail(c.Query("email")))
	if err != nil {
		return pc.internalError(c, "Failed to fetch payments", err)
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Payments fetched successfully",
		Status:  fiber.StatusOK,
		Data:    payments,
	})
}
