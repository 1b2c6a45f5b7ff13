package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

const (
	imageField   = "image"
	maxImageSize = 5 << 20
)

var errImageTooLarge = fmt.Errorf("image exceeds %d bytes", maxImageSize)

func isMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// formValues gives presence-aware access to multipart fields.
type formValues map[string][]string

func (f formValues) get(key string) (string, bool) {
	v, ok := f[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (f formValues) str(key string) string {
	v, _ := f.get(key)
	return v
}

// optional returns a pointer only for present, non-blank values.
func (f formValues) optional(key string) *string {
	v, ok := f.get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

// present returns a pointer for every present value, including empty ones.
func (f formValues) present(key string) *string {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	return &v
}

func readImage(form *multipart.Form) (*model.ImageUpload, error) {
	files := form.File[imageField]
	if len(files) == 0 {
		return nil, nil
	}

	fh := files[0]
	if fh.Size > maxImageSize {
		return nil, errImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	content, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(content) > maxImageSize {
		return nil, errImageTooLarge
	}
	return &model.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// parseCreateRequest reads a create payload sent either as JSON or as multipart form data.
func parseCreateRequest(c *fiber.Ctx) (*model.CreateOfferRequest, error) {
	var req model.CreateOfferRequest
	if !isMultipart(c) {
		if err := c.BodyParser(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	values := formValues(form.Value)
	req = model.CreateOfferRequest{
		SalonID:       values.str("salonId"),
		Title:         values.str("title"),
		Description:   values.optional("description"),
		OfferType:     model.OfferType(values.str("offerType")),
		ProductID:     values.optional("productId"),
		ServiceID:     values.optional("serviceId"),
		DiscountType:  model.DiscountType(values.str("discountType")),
		DiscountValue: values.str("discountValue"),
		StartsAt:      values.str("startsAt"),
		EndsAt:        values.str("endsAt"),
	}
	if req.Image, err = readImage(form); err != nil {
		return nil, err
	}
	return &req, nil
}

// parseUpdateRequest reads a partial update. Only fields present in the payload are set;
// an empty description clears it.
func parseUpdateRequest(c *fiber.Ctx) (*model.UpdateOfferRequest, error) {
	var req model.UpdateOfferRequest
	if !isMultipart(c) {
		if err := c.BodyParser(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	values := formValues(form.Value)
	req = model.UpdateOfferRequest{
		Title:         values.present("title"),
		Description:   values.present("description"),
		DiscountValue: values.present("discountValue"),
		StartsAt:      values.present("startsAt"),
		EndsAt:        values.present("endsAt"),
	}
	if req.Image, err = readImage(form); err != nil {
		return nil, err
	}
	return &req, nil
}

// bodyErrorMessage returns the message for a payload that could not be parsed.
func bodyErrorMessage(err error) string {
	if errors.Is(err, errImageTooLarge) {
		return "invalid request: " + err.Error()
	}
	return msgInvalidBody
}
