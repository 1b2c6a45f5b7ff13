package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/model"
	"github.com/fairyhunter13/salon-offers/internal/service"
)

// OfferServiceInterface defines the interface for offer business logic.
type OfferServiceInterface interface {
	Create(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error)
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	Update(ctx context.Context, id string, req *model.UpdateOfferRequest) (*model.Offer, error)
	SetActive(ctx context.Context, id string, active bool) (*model.Offer, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error)
	ListActivePublic(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error)
	Validate(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error)
}

// OfferHandler serves the offers backend API.
type OfferHandler struct {
	service   OfferServiceInterface
	validator *validator.Validate
}

// NewOfferHandler creates a new OfferHandler with the given service and validator.
func NewOfferHandler(svc OfferServiceInterface, v *validator.Validate) *OfferHandler {
	return &OfferHandler{service: svc, validator: v}
}

// RegisterRoutes mounts the offer routes on r. authenticated guards every non-public
// route and manage additionally guards mutations.
func (h *OfferHandler) RegisterRoutes(r fiber.Router, authenticated, manage fiber.Handler) {
	r.Get("/offers/public/active", h.ListActivePublic)
	r.Post("/offers/validate", h.ValidateOffer)

	r.Get("/offers", authenticated, h.ListOffers)
	r.Post("/offers", authenticated, manage, h.CreateOffer)
	r.Get("/offers/:id", authenticated, h.GetOffer)
	r.Patch("/offers/:id", authenticated, manage, h.UpdateOffer)
	r.Patch("/offers/:id/toggle", authenticated, manage, h.ToggleOffer)
	r.Delete("/offers/:id", authenticated, manage, h.DeleteOffer)
}

// fail maps service errors to HTTP responses. Unexpected errors are logged and hidden.
func (h *OfferHandler) fail(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return respondError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOfferNotFound):
		return respondError(c, fiber.StatusNotFound, msgOfferNotFound)
	case errors.Is(err, service.ErrOfferExists):
		return respondError(c, fiber.StatusConflict, msgAlreadyExists)
	}

	log.Error().
		Err(err).
		Str("offer_id", c.Params("id")).
		Str("request_id", requestID(c)).
		Msg("failed to " + action)
	return respondError(c, fiber.StatusInternalServerError, msgInternalError)
}

// CreateOffer handles POST /api/offers.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	req, err := parseCreateRequest(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, bodyErrorMessage(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	offer, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err, "create offer")
	}
	return respond(c, fiber.StatusCreated, "Offer created successfully", offer)
}

// ListOffers handles GET /api/offers.
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), parseFilter(c))
	if err != nil {
		return h.fail(c, err, "list offers")
	}
	return respondPage(c, "Offers fetched successfully", page.Offers, page.Pagination)
}

// GetOffer handles GET /api/offers/:id.
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	offer, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "get offer")
	}
	return respond(c, fiber.StatusOK, "Offer fetched successfully", offer)
}

// UpdateOffer handles PATCH /api/offers/:id.
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	req, err := parseUpdateRequest(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, bodyErrorMessage(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	offer, err := h.service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, err, "update offer")
	}
	return respond(c, fiber.StatusOK, "Offer updated successfully", offer)
}

// ToggleOffer handles PATCH /api/offers/:id/toggle.
func (h *OfferHandler) ToggleOffer(c *fiber.Ctx) error {
	var req model.ToggleOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	offer, err := h.service.SetActive(c.UserContext(), c.Params("id"), *req.IsActive)
	if err != nil {
		return h.fail(c, err, "toggle offer")
	}
	return respond(c, fiber.StatusOK, "Offer status updated successfully", offer)
}

// DeleteOffer handles DELETE /api/offers/:id.
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, "delete offer")
	}
	return respond(c, fiber.StatusOK, "Offer deleted successfully", nil)
}

// ListActivePublic handles GET /api/offers/public/active. No authentication.
func (h *OfferHandler) ListActivePublic(c *fiber.Ctx) error {
	page, err := h.service.ListActivePublic(c.UserContext(), parseFilter(c))
	if err != nil {
		return h.fail(c, err, "list active offers")
	}
	return respondPage(c, "Active offers fetched successfully", page.Offers, page.Pagination)
}

// ValidateOffer handles POST /api/offers/validate. No authentication.
// A well-formed request for an offer that does not apply is answered with 200 and valid=false.
func (h *OfferHandler) ValidateOffer(c *fiber.Ctx) error {
	var req model.ValidateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	result, err := h.service.Validate(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, err, "validate offer")
	}

	message := "Offer is valid"
	if !result.Valid {
		message = "Offer is not applicable"
	}
	return respond(c, fiber.StatusOK, message, result)
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
