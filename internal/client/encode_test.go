package client

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

func strPtr(s string) *string {
	return &s
}

func readMultipart(t *testing.T, body *EncodedBody) (map[string]string, map[string][]byte, map[string]string) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(body.ContentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	fields := map[string]string{}
	files := map[string][]byte{}
	fileTypes := map[string]string{}
	r := multipart.NewReader(bytes.NewReader(body.Body), params["boundary"])
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FileName() != "" {
			files[part.FormName()] = data
			fileTypes[part.FormName()] = part.Header.Get("Content-Type")
			continue
		}
		fields[part.FormName()] = string(data)
	}
	return fields, files, fileTypes
}

func TestEncodeRequestBody_JSONWithoutImage(t *testing.T) {
	req := &model.CreateOfferRequest{
		SalonID:       "salon-1",
		Title:         "Summer glow",
		OfferType:     model.OfferTypeSalon,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: "20",
		StartsAt:      "2025-06-01T00:00:00Z",
		EndsAt:        "2025-06-30T00:00:00Z",
	}

	body, err := EncodeRequestBody(req)
	require.NoError(t, err)
	assert.Equal(t, "application/json", body.ContentType)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body.Body, &decoded))
	assert.Equal(t, "salon-1", decoded["salonId"])
	assert.Equal(t, "20", decoded["discountValue"])
	assert.NotContains(t, decoded, "productId")
	assert.NotContains(t, decoded, "image")
}

func TestEncodeRequestBody_MultipartWithImage(t *testing.T) {
	req := &model.CreateOfferRequest{
		SalonID:       "salon-1",
		Title:         "Product deal",
		OfferType:     model.OfferTypeProduct,
		ProductID:     strPtr("P1"),
		DiscountType:  model.DiscountFlat,
		DiscountValue: "10",
		StartsAt:      "2025-06-01T00:00:00Z",
		EndsAt:        "2025-06-30T00:00:00Z",
		Image:         &model.ImageUpload{Filename: "banner.png", ContentType: "image/png", Content: []byte("png")},
	}

	body, err := EncodeRequestBody(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.ContentType, "multipart/form-data; boundary="))

	fields, files, fileTypes := readMultipart(t, body)
	assert.Equal(t, "salon-1", fields["salonId"])
	assert.Equal(t, "product", fields["offerType"])
	assert.Equal(t, "P1", fields["productId"])
	assert.Equal(t, "10", fields["discountValue"])
	assert.NotContains(t, fields, "serviceId")
	assert.NotContains(t, fields, "description")
	assert.Equal(t, []byte("png"), files["image"])
	assert.Equal(t, "image/png", fileTypes["image"])
}

func TestEncodeRequestBody_UpdateKeepsExplicitEmptyField(t *testing.T) {
	req := &model.UpdateOfferRequest{
		Description: strPtr(""),
		Image:       &model.ImageUpload{Filename: "x.jpg", Content: []byte("jpg")},
	}

	body, err := EncodeRequestBody(req)
	require.NoError(t, err)

	fields, files, fileTypes := readMultipart(t, body)
	assert.Equal(t, map[string]string{"description": ""}, fields)
	assert.Equal(t, []byte("jpg"), files["image"])
	assert.Equal(t, "application/octet-stream", fileTypes["image"])
}

func TestEncodeRequestBody_Toggle(t *testing.T) {
	active := false
	body, err := EncodeRequestBody(model.ToggleOfferRequest{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "application/json", body.ContentType)
	assert.JSONEq(t, `{"isActive":false}`, string(body.Body))
}
