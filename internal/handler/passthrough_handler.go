package handler

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/middleware"
	"github.com/fairyhunter13/salon-offers/internal/model"
)

// PassthroughHandler forwards dashboard resources (orders, staff, products, ...) to the
// backend unchanged. Method, headers, query string and body are relayed as received.
type PassthroughHandler struct {
	baseURL string
}

// NewPassthroughHandler creates a PassthroughHandler for the API rooted at baseURL.
func NewPassthroughHandler(baseURL string) *PassthroughHandler {
	return &PassthroughHandler{baseURL: strings.TrimRight(baseURL, "/")}
}

// RegisterRoutes mounts one bearer-protected forwarder per resource at /resource and /resource/*.
func (h *PassthroughHandler) RegisterRoutes(r fiber.Router, resources []string) {
	bearer := middleware.RequireBearer()
	for _, res := range resources {
		res = strings.Trim(strings.TrimSpace(res), "/")
		if res == "" {
			continue
		}
		r.All("/"+res, bearer, h.Forward(res))
		r.All("/"+res+"/*", bearer, h.Forward(res))
	}
}

// Forward returns the handler relaying requests for resource.
func (h *PassthroughHandler) Forward(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := h.baseURL + "/" + resource
		if rest := c.Params("*"); rest != "" {
			target += "/" + rest
		}
		if qs := c.Request().URI().QueryString(); len(qs) > 0 {
			target += "?" + string(qs)
		}

		if err := proxy.Do(c, target); err != nil {
			log.Error().Err(err).Str("resource", resource).Str("method", c.Method()).Msg("pass-through request failed")
			c.Response().Reset()
			return c.Status(fiber.StatusInternalServerError).JSON(model.Envelope{
				Message: "Failed to reach backend",
				Error:   err.Error(),
			})
		}

		wrapNonJSONError(c)
		return nil
	}
}

// wrapNonJSONError replaces a non-JSON error body with an envelope carrying the same status.
func wrapNonJSONError(c *fiber.Ctx) {
	resp := c.Response()
	status := resp.StatusCode()
	if status < fiber.StatusBadRequest {
		return
	}
	if bytes.HasPrefix(bytes.ToLower(resp.Header.ContentType()), []byte(fiber.MIMEApplicationJSON)) {
		return
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = fiber.NewError(status).Message
	}
	if err := c.Status(status).JSON(model.Envelope{Message: "Backend request failed", Error: body}); err != nil {
		log.Error().Err(err).Msg("failed to wrap backend error")
	}
}
