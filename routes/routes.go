package routes

import (
	"github.com/gofiber/fiber/v2"

	"proshift/cache"
	"proshift/constants"
	parcelController "proshift/controllers/parcel"
	paymentController "proshift/controllers/payment"
	riderController "proshift/controllers/rider"
	trackingController "proshift/controllers/tracking"
	userController "proshift/controllers/user"
	"proshift/database"
	"proshift/logger"
	"proshift/middleware"
	"proshift/services"
)

// Dependencies are the long-lived clients shared by every controller.
// Waybill may be nil; the parse endpoint then answers 503.
type Dependencies struct {
	Store     database.Store
	Cache     cache.Cache
	Verifier  middleware.TokenVerifier
	Processor paymentController.PaymentProcessor
	Waybill   parcelController.WaybillParser
	Logger    *logger.AsyncLogger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	perms := services.NewPermissionService(deps.Store)
	parcels := services.NewParcelService(deps.Store, deps.Cache)
	riders := services.NewRiderService(deps.Store)

	userCtl := userController.NewUserController(deps.Store, deps.Logger)
	parcelCtl := parcelController.NewParcelController(deps.Store, parcels, perms, deps.Waybill, deps.Logger)
	riderCtl := riderController.NewRiderController(deps.Store, riders, parcels, deps.Logger)
	paymentCtl := paymentController.NewPaymentController(deps.Store, parcels, deps.Processor, deps.Logger)
	trackingCtl := trackingController.NewTrackingController(deps.Store, perms, deps.Logger)

	verified := middleware.VerifyToken(deps.Verifier)
	admin := middleware.RequireRole(perms, constants.RoleAdmin)
	rider := middleware.RequireRole(perms, constants.RoleRider)

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ProShift Parcel Delivery API is running")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := deps.Store.Ping(c.UserContext()); err != nil {
			logger.Error("Health check: store unreachable", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"store": "down"})
		}
		cacheStatus := "up"
		if deps.Cache != nil {
			if err := deps.Cache.Ping(c.UserContext()); err != nil {
				cacheStatus = "down"
			}
		}
		return c.JSON(fiber.Map{"store": "up", "cache": cacheStatus})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	app.Post("/users", userCtl.Upsert)

	/*=============================================================================
	| User Routes
	===============================================================================*/
	app.Get("/users/search", verified, admin, userCtl.Search)
	app.Patch("/users/:id/role", verified, admin, userCtl.UpdateRole)
	app.Get("/users/:email/role", verified, userCtl.GetRole)

	/*=============================================================================
	| Parcel Routes
	===============================================================================*/
	app.Get("/parcels", verified, middleware.RequireOwner(perms), parcelCtl.List)
	app.Post("/parcels", verified, parcelCtl.Create)
	app.Get("/parcels/delivery/status-count", verified, admin, parcelCtl.StatusCount)
	app.Post("/parcels/waybill/parse", verified, parcelCtl.ParseWaybill)
	app.Get("/parcels/:id", verified, parcelCtl.Get)
	app.Delete("/parcels/:id", verified, parcelCtl.Delete)
	app.Patch("/parcels/:id/assign", verified, admin, parcelCtl.AssignRider)
	app.Patch("/parcels/:id/status", verified, rider, parcelCtl.UpdateStatus)
	app.Patch("/parcels/:id/cashout", verified, rider, parcelCtl.RequestCashout)
	app.Patch("/parcels/:id/cashout/complete", verified, admin, parcelCtl.CompleteCashout)

	/*=============================================================================
	| Rider Routes
	===============================================================================*/
	app.Post("/riders", verified, riderCtl.Apply)
	app.Get("/riders/pending", verified, admin, riderCtl.Pending)
	app.Get("/riders/active", verified, admin, riderCtl.Active)
	app.Get("/riders/available", verified, admin, riderCtl.Available)
	app.Patch("/riders/:id/status", verified, admin, riderCtl.UpdateStatus)

	riderGroup := app.Group("/rider", verified, rider)
	riderGroup.Get("/parcels", riderCtl.MyParcels)
	riderGroup.Get("/completed-parcels", riderCtl.Completed)
	riderGroup.Get("/earnings", riderCtl.Earnings)
	riderGroup.Get("/weekly-deliveries", riderCtl.Weekly)

	/*=============================================================================
	| Payment Routes
	===============================================================================*/
	app.Post("/create-payment-intent", verified, paymentCtl.CreateIntent)
	app.Post("/payments", verified, paymentCtl.Record)
	app.Get("/payments", verified, middleware.RequireOwner(perms), paymentCtl.List)

	/*=============================================================================
	| Tracking Routes
	===============================================================================*/
	app.Get("/trackings/:trackingId", verified, trackingCtl.Get)
	app.Post("/trackings", verified, middleware.RequireAnyRole(perms, constants.RoleRider, constants.RoleAdmin), trackingCtl.Append)
}
