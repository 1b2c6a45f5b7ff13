package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/client"
	"github.com/fairyhunter13/salon-offers/internal/middleware"
	"github.com/fairyhunter13/salon-offers/internal/model"
)

// OfferClientInterface defines the upstream offer operations used by the proxy.
type OfferClientInterface interface {
	Create(ctx context.Context, req *model.CreateOfferRequest, auth model.AuthContext) (*model.Offer, error)
	Update(ctx context.Context, id string, req *model.UpdateOfferRequest, auth model.AuthContext) (*model.Offer, error)
	ToggleStatus(ctx context.Context, id string, isActive bool, auth model.AuthContext) (*model.Offer, error)
	Delete(ctx context.Context, id string, auth model.AuthContext) (string, error)
	List(ctx context.Context, filter model.OfferFilter, auth model.AuthContext) (*model.OfferPage, error)
	GetByID(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error)
	ListActivePublic(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error)
	Validate(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error)
}

// OfferProxyHandler serves /api/offers for the dashboard by forwarding to the backend.
// Offers are returned with their status and discount label computed at response time.
type OfferProxyHandler struct {
	client    OfferClientInterface
	validator *validator.Validate
	now       func() time.Time
}

// NewOfferProxyHandler creates a new OfferProxyHandler.
func NewOfferProxyHandler(c OfferClientInterface, v *validator.Validate) *OfferProxyHandler {
	return &OfferProxyHandler{client: c, validator: v, now: time.Now}
}

// WithClock replaces the time source. Primarily used for testing.
func (h *OfferProxyHandler) WithClock(now func() time.Time) *OfferProxyHandler {
	h.now = now
	return h
}

// RegisterRoutes mounts the proxied offer routes. Every route except the public
// listing and validate requires a bearer token.
func (h *OfferProxyHandler) RegisterRoutes(r fiber.Router) {
	bearer := middleware.RequireBearer()

	r.Get("/offers/public/active", h.ListActivePublic)
	r.Post("/offers/validate", h.ValidateOffer)

	r.Get("/offers", bearer, h.ListOffers)
	r.Post("/offers", bearer, h.CreateOffer)
	r.Get("/offers/:id", bearer, h.GetOffer)
	r.Patch("/offers/:id", bearer, h.UpdateOffer)
	r.Patch("/offers/:id/toggle", bearer, h.ToggleOffer)
	r.Delete("/offers/:id", bearer, h.DeleteOffer)
}

func (h *OfferProxyHandler) view(o *model.Offer, now time.Time) model.OfferView {
	v, err := o.View(now)
	if err != nil {
		log.Warn().
			Err(err).
			Str("offer_id", o.ID).
			Str("discount_type", string(o.DiscountType)).
			Str("discount_value", o.DiscountValue.String()).
			Msg("discount label unavailable")
	}
	return v
}

func (h *OfferProxyHandler) views(offers []model.Offer) []model.OfferView {
	now := h.now()
	out := make([]model.OfferView, 0, len(offers))
	for i := range offers {
		out = append(out, h.view(&offers[i], now))
	}
	return out
}

// relayError forwards an upstream failure with the upstream status. Failures without a
// usable upstream status become 500 with the underlying cause in "error".
func relayError(c *fiber.Ctx, err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		log.Error().Err(err).Str("path", c.Path()).Msg("offer proxy failed")
		return c.Status(fiber.StatusInternalServerError).JSON(model.Envelope{Message: msgUpstreamFailed, Error: err.Error()})
	}

	body := model.Envelope{Message: apiErr.Message}
	status := apiErr.StatusCode
	if errors.Is(err, client.ErrTransport) {
		if apiErr.Err != nil {
			body.Error = apiErr.Err.Error()
		}
		if status < fiber.StatusBadRequest {
			status = fiber.StatusInternalServerError
		}
		log.Error().
			Err(err).
			Str("path", c.Path()).
			Int("upstream_status", apiErr.StatusCode).
			Msg("offer proxy transport failure")
	}
	return c.Status(status).JSON(body)
}

// ListOffers handles GET /api/offers.
func (h *OfferProxyHandler) ListOffers(c *fiber.Ctx) error {
	page, err := h.client.List(c.UserContext(), parseFilter(c), middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	return respondPage(c, "Offers fetched successfully", h.views(page.Offers), page.Pagination)
}

// CreateOffer handles POST /api/offers (multipart or JSON).
func (h *OfferProxyHandler) CreateOffer(c *fiber.Ctx) error {
	req, err := parseCreateRequest(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, bodyErrorMessage(err))
	}

	offer, err := h.client.Create(c.UserContext(), req, middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Offer created successfully", h.view(offer, h.now()))
}

// GetOffer handles GET /api/offers/:id.
func (h *OfferProxyHandler) GetOffer(c *fiber.Ctx) error {
	offer, err := h.client.GetByID(c.UserContext(), c.Params("id"), middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	return respond(c, fiber.StatusOK, "Offer fetched successfully", h.view(offer, h.now()))
}

// UpdateOffer handles PATCH /api/offers/:id (multipart or JSON).
func (h *OfferProxyHandler) UpdateOffer(c *fiber.Ctx) error {
	req, err := parseUpdateRequest(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, bodyErrorMessage(err))
	}

	offer, err := h.client.Update(c.UserContext(), c.Params("id"), req, middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	return respond(c, fiber.StatusOK, "Offer updated successfully", h.view(offer, h.now()))
}

// ToggleOffer handles PATCH /api/offers/:id/toggle with a JSON {isActive} body.
func (h *OfferProxyHandler) ToggleOffer(c *fiber.Ctx) error {
	var req model.ToggleOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	offer, err := h.client.ToggleStatus(c.UserContext(), c.Params("id"), *req.IsActive, middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	return respond(c, fiber.StatusOK, "Offer status updated successfully", h.view(offer, h.now()))
}

// DeleteOffer handles DELETE /api/offers/:id.
func (h *OfferProxyHandler) DeleteOffer(c *fiber.Ctx) error {
	message, err := h.client.Delete(c.UserContext(), c.Params("id"), middleware.AuthFrom(c))
	if err != nil {
		return relayError(c, err)
	}
	if message == "" {
		message = "Offer deleted successfully"
	}
	return respond(c, fiber.StatusOK, message, nil)
}

// ListActivePublic handles GET /api/offers/public/active. No authentication.
func (h *OfferProxyHandler) ListActivePublic(c *fiber.Ctx) error {
	page, err := h.client.ListActivePublic(c.UserContext(), parseFilter(c))
	if err != nil {
		return relayError(c, err)
	}
	return respondPage(c, "Active offers fetched successfully", h.views(page.Offers), page.Pagination)
}

// ValidateOffer handles POST /api/offers/validate. No authentication.
// The request is forwarded as-is; the backend decides whether it is well formed.
func (h *OfferProxyHandler) ValidateOffer(c *fiber.Ctx) error {
	var req model.ValidateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	result, err := h.client.Validate(c.UserContext(), &req)
	if err != nil {
		return relayError(c, err)
	}

	message := "Offer is valid"
	if !result.Valid {
		message = "Offer is not applicable"
	}
	return respond(c, fiber.StatusOK, message, result)
}
