package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

// imageField is the multipart field name carrying an offer image.
const imageField = "image"

// binaryPayload is implemented by payloads that may carry a file.
type binaryPayload interface {
	Attachment() *model.ImageUpload
}

// EncodedBody is a request body together with its content type.
type EncodedBody struct {
	ContentType string
	Body        []byte
}

// EncodeRequestBody selects the wire encoding from the payload's shape:
// payloads carrying a file are sent as multipart/form-data, everything else as JSON.
// In multipart bodies the JSON fields of the payload become form fields; null fields are omitted.
func EncodeRequestBody(payload any) (*EncodedBody, error) {
	if bp, ok := payload.(binaryPayload); ok {
		if img := bp.Attachment(); img != nil {
			return encodeMultipart(payload, img)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return &EncodedBody{ContentType: fiber.MIMEApplicationJSON, Body: body}, nil
}

func encodeMultipart(payload any, img *model.ImageUpload) (*EncodedBody, error) {
	fields, err := formFields(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	h.Set(fiber.HeaderContentType, contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(img.Content); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return &EncodedBody{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

// formFields flattens the JSON representation of payload into string form values.
func formFields(payload any) (map[string]string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode form fields: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case nil:
		case string:
			fields[k] = v
		case bool:
			fields[k] = strconv.FormatBool(v)
		case float64:
			fields[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("field %s cannot be sent as form data", k)
		}
	}
	return fields, nil
}
