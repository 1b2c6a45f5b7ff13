package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

// envelope is the response shape of every backend endpoint.
type envelope struct {
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
}

// call describes one request to the backend. A nil auth marks a public endpoint.
type call struct {
	method   string
	path     string
	query    url.Values
	auth     *model.AuthContext
	payload  any
	fallback string
}

// OfferClient issues offer operations against the remote backend API.
// It holds no token: every authenticated call takes the caller's AuthContext.
// Failed requests are never retried.
type OfferClient struct {
	http    *fiber.Client
	baseURL string
	timeout time.Duration
}

// NewOfferClient creates a client for the API rooted at baseURL (e.g. http://localhost:4000/api).
// A zero timeout keeps the HTTP client default; a context deadline always applies.
func NewOfferClient(baseURL string, timeout time.Duration) *OfferClient {
	return &OfferClient{
		http:    &fiber.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *OfferClient) agent(method, target string) *fiber.Agent {
	switch method {
	case http.MethodPost:
		return c.http.Post(target)
	case http.MethodPatch:
		return c.http.Patch(target)
	case http.MethodDelete:
		return c.http.Delete(target)
	default:
		return c.http.Get(target)
	}
}

func (c *OfferClient) timeoutFor(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (c *OfferClient) do(ctx context.Context, req call) (*envelope, error) {
	if req.auth != nil && !req.auth.Authenticated() {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "Authorization header required", kind: ErrAuth}
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(0, req.fallback, err)
	}

	var body *EncodedBody
	if req.payload != nil {
		var err error
		if body, err = EncodeRequestBody(req.payload); err != nil {
			return nil, transportError(0, req.fallback, err)
		}
	}
	timeout := c.timeoutFor(ctx)
	if timeout < 0 {
		return nil, transportError(0, req.fallback, context.DeadlineExceeded)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	a := c.agent(req.method, target)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if req.auth != nil {
		a.Set(fiber.HeaderAuthorization, req.auth.Header())
	}
	if body != nil {
		a.ContentType(body.ContentType).Body(body.Body)
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}

	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("upstream request failed")
		return nil, transportError(0, req.fallback, err)
	}

	return decodeResponse(code, raw, req.fallback)
}

func decodeResponse(code int, raw []byte, fallback string) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, transportError(code, fallback, fmt.Errorf("decode response (status %d): %w", code, err))
	}

	if code < 200 || code >= 300 {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return nil, &APIError{StatusCode: code, Message: msg, kind: kindForStatus(code)}
	}
	return &env, nil
}

func decodeData[T any](env *envelope, fallback string) (*T, error) {
	var v T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, transportError(http.StatusOK, fallback, errors.New("response has no data"))
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, transportError(http.StatusOK, fallback, fmt.Errorf("decode data: %w", err))
	}
	return &v, nil
}

func offerPath(id string) string {
	return "/offers/" + url.PathEscape(id)
}

// Create submits a new offer. Requests with an image are sent as multipart form data.
func (c *OfferClient) Create(ctx context.Context, req *model.CreateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
	const fallback = "Failed to create offer"
	env, err := c.do(ctx, call{method: http.MethodPost, path: "/offers", auth: &auth, payload: req, fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodeData[model.Offer](env, fallback)
}

// Update sends only the changed fields of an offer.
func (c *OfferClient) Update(ctx context.Context, id string, req *model.UpdateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
	const fallback = "Failed to update offer"
	env, err := c.do(ctx, call{method: http.MethodPatch, path: offerPath(id), auth: &auth, payload: req, fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodeData[model.Offer](env, fallback)
}

// ToggleStatus sets the owner-controlled active flag.
func (c *OfferClient) ToggleStatus(ctx context.Context, id string, isActive bool, auth model.AuthContext) (*model.Offer, error) {
	const fallback = "Failed to toggle offer status"
	payload := model.ToggleOfferRequest{IsActive: &isActive}
	env, err := c.do(ctx, call{method: http.MethodPatch, path: offerPath(id) + "/toggle", auth: &auth, payload: payload, fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodeData[model.Offer](env, fallback)
}

// Delete removes an offer and returns the backend's confirmation message.
// Deleting a missing offer fails with ErrNotFound.
func (c *OfferClient) Delete(ctx context.Context, id string, auth model.AuthContext) (string, error) {
	env, err := c.do(ctx, call{method: http.MethodDelete, path: offerPath(id), auth: &auth, fallback: "Failed to delete offer"})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// GetByID fetches a single offer.
func (c *OfferClient) GetByID(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error) {
	const fallback = "Failed to fetch offer"
	env, err := c.do(ctx, call{method: http.MethodGet, path: offerPath(id), auth: &auth, fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodeData[model.Offer](env, fallback)
}

// List returns one page of offers matching filter.
func (c *OfferClient) List(ctx context.Context, filter model.OfferFilter, auth model.AuthContext) (*model.OfferPage, error) {
	env, err := c.do(ctx, call{method: http.MethodGet, path: "/offers", query: filter.Values(), auth: &auth, fallback: "Failed to fetch offers"})
	if err != nil {
		return nil, err
	}
	return decodePage(env, filter, "Failed to fetch offers")
}

// ListActivePublic returns the currently redeemable offers. No token is sent.
func (c *OfferClient) ListActivePublic(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error) {
	const fallback = "Failed to fetch active offers"
	filter.ActiveOnly = false
	env, err := c.do(ctx, call{method: http.MethodGet, path: "/offers/public/active", query: filter.Values(), fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodePage(env, filter, fallback)
}

// Validate asks the backend whether an offer applies to a purchase. No token is sent.
// An offer that does not apply is a successful call with Valid=false.
func (c *OfferClient) Validate(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error) {
	const fallback = "Failed to validate offer"
	env, err := c.do(ctx, call{method: http.MethodPost, path: "/offers/validate", payload: req, fallback: fallback})
	if err != nil {
		return nil, err
	}
	return decodeData[model.ValidateOfferResult](env, fallback)
}

// Ping checks that the backend answers the public listing.
func (c *OfferClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/offers/public/active",
		query:    url.Values{"limit": {"1"}},
		fallback: "Backend unavailable",
	})
	return err
}

func decodePage(env *envelope, filter model.OfferFilter, fallback string) (*model.OfferPage, error) {
	offers := []model.Offer{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &offers); err != nil {
			return nil, transportError(http.StatusOK, fallback, fmt.Errorf("decode offers: %w", err))
		}
	}

	page := &model.OfferPage{Offers: offers}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	} else {
		f := filter.Normalize()
		page.Pagination = model.NewPagination(f.Page, f.Limit, len(offers))
	}
	return page, nil
}
