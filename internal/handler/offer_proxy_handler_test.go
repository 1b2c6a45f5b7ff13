package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/salon-offers/internal/client"
	"github.com/fairyhunter13/salon-offers/internal/model"
	appvalidator "github.com/fairyhunter13/salon-offers/internal/validator"
)

// mockOfferClient is a mock implementation of OfferClientInterface.
type mockOfferClient struct {
	calls int

	createFn           func(ctx context.Context, req *model.CreateOfferRequest, auth model.AuthContext) (*model.Offer, error)
	updateFn           func(ctx context.Context, id string, req *model.UpdateOfferRequest, auth model.AuthContext) (*model.Offer, error)
	toggleFn           func(ctx context.Context, id string, isActive bool, auth model.AuthContext) (*model.Offer, error)
	deleteFn           func(ctx context.Context, id string, auth model.AuthContext) (string, error)
	listFn             func(ctx context.Context, filter model.OfferFilter, auth model.AuthContext) (*model.OfferPage, error)
	getByIDFn          func(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error)
	listActivePublicFn func(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error)
	validateFn         func(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error)
}

func (m *mockOfferClient) Create(ctx context.Context, req *model.CreateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, req, auth)
	}
	return sampleOffer(), nil
}

func (m *mockOfferClient) Update(ctx context.Context, id string, req *model.UpdateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
	m.calls++
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req, auth)
	}
	return sampleOffer(), nil
}

func (m *mockOfferClient) ToggleStatus(ctx context.Context, id string, isActive bool, auth model.AuthContext) (*model.Offer, error) {
	m.calls++
	if m.toggleFn != nil {
		return m.toggleFn(ctx, id, isActive, auth)
	}
	return sampleOffer(), nil
}

func (m *mockOfferClient) Delete(ctx context.Context, id string, auth model.AuthContext) (string, error) {
	m.calls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, auth)
	}
	return "Offer deleted successfully", nil
}

func (m *mockOfferClient) List(ctx context.Context, filter model.OfferFilter, auth model.AuthContext) (*model.OfferPage, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx, filter, auth)
	}
	return &model.OfferPage{Offers: []model.Offer{}}, nil
}

func (m *mockOfferClient) GetByID(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error) {
	m.calls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, auth)
	}
	return sampleOffer(), nil
}

func (m *mockOfferClient) ListActivePublic(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error) {
	m.calls++
	if m.listActivePublicFn != nil {
		return m.listActivePublicFn(ctx, filter)
	}
	return &model.OfferPage{Offers: []model.Offer{}}, nil
}

func (m *mockOfferClient) Validate(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error) {
	m.calls++
	if m.validateFn != nil {
		return m.validateFn(ctx, req)
	}
	return &model.ValidateOfferResult{}, nil
}

func setupProxyApp(c *mockOfferClient) *fiber.App {
	app := fiber.New()
	NewOfferProxyHandler(c, appvalidator.New()).
		WithClock(func() time.Time { return testNow }).
		RegisterRoutes(app.Group("/api"))
	return app
}

const bearer = "Bearer token-123"

func TestOfferProxy_RequiresAuthorization(t *testing.T) {
	mock := &mockOfferClient{}
	app := setupProxyApp(mock)

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/offers", ""},
		{http.MethodPost, "/api/offers", validCreateBody},
		{http.MethodGet, "/api/offers/" + testOfferID, ""},
		{http.MethodPatch, "/api/offers/" + testOfferID, `{"title":"x"}`},
		{http.MethodPatch, "/api/offers/" + testOfferID + "/toggle", `{"isActive":true}`},
		{http.MethodDelete, "/api/offers/" + testOfferID, ""},
	}

	for _, r := range requests {
		resp := doJSON(t, app, r.method, r.path, r.body)
		assert.Equal(t, fiber.StatusUnauthorized, resp.Status, "%s %s", r.method, r.path)
		assert.Equal(t, "Authorization header required", resp.Message)
	}
	assert.Zero(t, mock.calls, "no upstream call without a token")
}

func TestOfferProxy_ListDecoratesOffers(t *testing.T) {
	expired := sampleOffer()
	expired.ID = "expired"
	expired.EndsAt = testNow.Add(-time.Hour)

	flat := sampleOffer()
	flat.ID = "flat"
	flat.DiscountType = model.DiscountFlat
	flat.DiscountValue = decimal.RequireFromString("10")
	flat.IsActive = false

	mock := &mockOfferClient{listFn: func(ctx context.Context, filter model.OfferFilter, auth model.AuthContext) (*model.OfferPage, error) {
		assert.Equal(t, "token-123", auth.Token)
		assert.Equal(t, "salon-1", filter.SalonID)
		return &model.OfferPage{
			Offers:     []model.Offer{*sampleOffer(), *expired, *flat},
			Pagination: model.NewPagination(1, 10, 3),
		}, nil
	}}
	app := setupProxyApp(mock)

	resp := doJSON(t, app, http.MethodGet, "/api/offers?salonId=salon-1", "", "Authorization", bearer)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var views []model.OfferView
	require.NoError(t, json.Unmarshal(resp.Data, &views))
	require.Len(t, views, 3)

	assert.Equal(t, model.StatusActive, views[0].Status)
	assert.Equal(t, "20% OFF", views[0].DiscountLabel)
	assert.Equal(t, model.StatusExpired, views[1].Status)
	assert.Equal(t, model.StatusInactive, views[2].Status)
	assert.Equal(t, "$10.00 OFF", views[2].DiscountLabel)

	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 3, resp.Pagination.Total)
}

func TestOfferProxy_UnformattableDiscountLogsCause(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	broken := sampleOffer()
	broken.DiscountType = model.DiscountType("bogo")
	mock := &mockOfferClient{getByIDFn: func(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error) {
		return broken, nil
	}}
	app := setupProxyApp(mock)

	resp := doJSON(t, app, http.MethodGet, "/api/offers/"+testOfferID, "", "Authorization", bearer)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var view model.OfferView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Empty(t, view.DiscountLabel)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "discount label unavailable", entry["message"])
	assert.Contains(t, entry["error"], `cannot format "bogo" discount value`)
}

func TestOfferProxy_CreateMultipartForwardsImage(t *testing.T) {
	var got *model.CreateOfferRequest
	mock := &mockOfferClient{createFn: func(ctx context.Context, req *model.CreateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
		got = req
		assert.Equal(t, "token-123", auth.Token)
		return sampleOffer(), nil
	}}
	app := setupProxyApp(mock)

	req := multipartRequest(t, http.MethodPost, "/api/offers", map[string]string{
		"salonId":       "salon-1",
		"title":         "Summer glow",
		"offerType":     "salon",
		"discountType":  "percentage",
		"discountValue": "20",
		"startsAt":      "2025-06-01T00:00:00Z",
		"endsAt":        "2025-06-30T00:00:00Z",
	}, []byte("png"))
	req.Header.Set("Authorization", bearer)

	resp := send(t, app, req)
	assert.Equal(t, fiber.StatusCreated, resp.Status)
	require.NotNil(t, got)
	require.NotNil(t, got.Image)
	assert.Equal(t, []byte("png"), got.Image.Content)

	var view model.OfferView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, model.StatusActive, view.Status)
}

func TestOfferProxy_RelaysUpstreamErrors(t *testing.T) {
	testCases := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedError   string
	}{
		{"validation", client.NewAPIError(400, "invalid request: title is required", client.ErrValidation, nil), 400, "invalid request: title is required", ""},
		{"not_found", client.NewAPIError(404, "Offer not found", client.ErrNotFound, nil), 404, "Offer not found", ""},
		{"forbidden", client.NewAPIError(403, "Forbidden", client.ErrAuth, nil), 403, "Forbidden", ""},
		{"upstream_500", client.NewAPIError(500, "Internal server error", client.ErrUpstream, nil), 500, "Internal server error", ""},
		{"network", client.NewAPIError(0, "Failed to fetch offer", client.ErrTransport, errors.New("dial tcp: connection refused")), 500, "Failed to fetch offer", "dial tcp: connection refused"},
		{"non_json_error", client.NewAPIError(502, "Failed to fetch offer", client.ErrTransport, errors.New("decode response")), 502, "Failed to fetch offer", "decode response"},
		{"non_json_success", client.NewAPIError(200, "Failed to fetch offer", client.ErrTransport, errors.New("decode response")), 500, "Failed to fetch offer", "decode response"},
		{"unknown", errors.New("boom"), 500, "Upstream request failed", "boom"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockOfferClient{getByIDFn: func(ctx context.Context, id string, auth model.AuthContext) (*model.Offer, error) {
				return nil, tc.err
			}}
			app := setupProxyApp(mock)

			resp := doJSON(t, app, http.MethodGet, "/api/offers/"+testOfferID, "", "Authorization", bearer)
			assert.Equal(t, tc.expectedStatus, resp.Status)
			assert.Equal(t, tc.expectedMessage, resp.Message)
			assert.Equal(t, tc.expectedError, resp.Error)
		})
	}
}

func TestOfferProxy_PublicRoutesNeedNoToken(t *testing.T) {
	mock := &mockOfferClient{
		listActivePublicFn: func(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error) {
			return &model.OfferPage{Offers: []model.Offer{*sampleOffer()}, Pagination: model.NewPagination(1, 10, 1)}, nil
		},
		validateFn: func(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error) {
			assert.Equal(t, 100.0, *req.Amount)
			return &model.ValidateOfferResult{Valid: false, FinalAmount: 100, Reason: "offer is not active"}, nil
		},
	}
	app := setupProxyApp(mock)

	resp := doJSON(t, app, http.MethodGet, "/api/offers/public/active", "")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Data), `"status":"active"`)

	resp = doJSON(t, app, http.MethodPost, "/api/offers/validate", `{"offerId":"`+testOfferID+`","amount":100,"salonId":"salon-1"}`)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "Offer is not applicable", resp.Message)
	assert.JSONEq(t, `{"valid":false,"discountAmount":0,"finalAmount":100,"reason":"offer is not active"}`, string(resp.Data))
}

func TestOfferProxy_ToggleUpdateDelete(t *testing.T) {
	mock := &mockOfferClient{
		toggleFn: func(ctx context.Context, id string, isActive bool, auth model.AuthContext) (*model.Offer, error) {
			o := sampleOffer()
			o.IsActive = isActive
			return o, nil
		},
		updateFn: func(ctx context.Context, id string, req *model.UpdateOfferRequest, auth model.AuthContext) (*model.Offer, error) {
			require.NotNil(t, req.Title)
			o := sampleOffer()
			o.Title = *req.Title
			return o, nil
		},
	}
	app := setupProxyApp(mock)

	resp := doJSON(t, app, http.MethodPatch, "/api/offers/"+testOfferID+"/toggle", `{"isActive":false}`, "Authorization", bearer)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Data), `"status":"inactive"`)

	resp = doJSON(t, app, http.MethodPatch, "/api/offers/"+testOfferID+"/toggle", `{}`, "Authorization", bearer)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = doJSON(t, app, http.MethodPatch, "/api/offers/"+testOfferID, `{"title":"Winter glow"}`, "Authorization", bearer)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Data), `"title":"Winter glow"`)

	resp = doJSON(t, app, http.MethodDelete, "/api/offers/"+testOfferID, "", "Authorization", bearer)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "Offer deleted successfully", resp.Message)
}
