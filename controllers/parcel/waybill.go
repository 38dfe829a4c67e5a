package parcel

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	"proshift/logger"
	"proshift/services/waybill"
	"proshift/types"
	parcelTypes "proshift/types/parcel"
)

// WaybillParser extracts a draft parcel from a waybill photo
type WaybillParser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*parcelTypes.WaybillDraft, error)
}

// ParseWaybill reads the multipart "image" field and returns the extracted draft
func (pc *ParcelController) ParseWaybill(c *fiber.Ctx) error {
	if pc.Waybill == nil {
		return pc.sendResponseWithLog(c, fiber.StatusServiceUnavailable, types.ApiResponse{
			Message: "Waybill parsing is not configured",
			Status:  fiber.StatusServiceUnavailable,
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return pc.badRequest(c, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !waybill.IsValidImageType(contentType) {
		return pc.badRequest(c, "Invalid file type. Only JPEG, PNG and WEBP images are allowed")
	}
	if file.Size > waybill.MaxImageSize {
		return pc.badRequest(c, "File size exceeds 10MB limit")
	}

	f, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded waybill", err)
		return pc.badRequest(c, "Failed to read image file")
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, waybill.MaxImageSize+1))
	if err != nil {
		logger.Error("Failed to read uploaded waybill", err)
		return pc.badRequest(c, "Failed to read image file")
	}

	draft, err := pc.Waybill.Parse(c.UserContext(), image, contentType)
	if err != nil {
		logger.Error("Failed to parse waybill", err)
		return pc.sendResponseWithLog(c, fiber.StatusBadGateway, types.ApiResponse{
			Message: "Failed to extract waybill details",
			Status:  fiber.StatusBadGateway,
			Error:   err.Error(),
		})
	}

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Waybill parsed successfully",
		Status:  fiber.StatusOK,
		Data:    draft,
	})
}
