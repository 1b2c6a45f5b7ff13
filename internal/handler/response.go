package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

const (
	msgInvalidBody    = "invalid request body"
	msgOfferNotFound  = "Offer not found"
	msgInternalError  = "Internal server error"
	msgAlreadyExists  = "Offer already exists"
	msgUpstreamFailed = "Upstream request failed"
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(model.Envelope{Message: message, Data: data})
}

func respondPage(c *fiber.Ctx, message string, data any, p model.Pagination) error {
	return c.Status(fiber.StatusOK).JSON(model.Envelope{Message: message, Data: data, Pagination: &p})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(model.Envelope{Message: message})
}

// formatValidationError converts the first validator error into a client-facing message.
// Field names are the JSON names registered by internal/validator.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be blank"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "oneof":
		return "invalid request: " + field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "decimal":
		return "invalid request: " + field + " must be a decimal number"
	case "datetime":
		return "invalid request: " + field + " must be an RFC3339 timestamp"
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	default:
		return "invalid request: " + field + " is invalid"
	}
}

// parseFilter reads the listing query parameters. Unparseable numbers fall back to the defaults.
func parseFilter(c *fiber.Ctx) model.OfferFilter {
	return model.OfferFilter{
		SalonID:    c.Query("salonId"),
		ProductID:  c.Query("productId"),
		ServiceID:  c.Query("serviceId"),
		ActiveOnly: c.QueryBool("activeOnly"),
		Page:       c.QueryInt("page"),
		Limit:      c.QueryInt("limit"),
	}
}
