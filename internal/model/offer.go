package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType determines which optional target field of an offer is meaningful.
type OfferType string

const (
	OfferTypeSalon   OfferType = "salon"
	OfferTypeProduct OfferType = "product"
	OfferTypeService OfferType = "service"
)

// DiscountType is either a percentage of the amount or a flat reduction.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Offer is a promotional discount scoped to a salon, optionally narrowed
// to one product or service.
type Offer struct {
	ID            string          `json:"id"`
	SalonID       string          `json:"salonId"`
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	OfferType     OfferType       `json:"offerType"`
	ProductID     *string         `json:"productId"`
	ServiceID     *string         `json:"serviceId"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	StartsAt      time.Time       `json:"startsAt"`
	EndsAt        time.Time       `json:"endsAt"`
	IsActive      bool            `json:"isActive"`
	Image         *string         `json:"image"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OfferView is an offer decorated with values derived at response time.
type OfferView struct {
	Offer
	Status        OfferStatus `json:"status"`
	DiscountLabel string      `json:"discountLabel,omitempty"`
}

// ImageUpload is an opaque binary blob submitted alongside an offer.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CreateOfferRequest is the DTO for creating an offer. Timestamps are RFC3339
// strings and the discount value is a decimal string, as they arrive in form data.
type CreateOfferRequest struct {
	SalonID       string       `json:"salonId" validate:"required,notblank,max=255"`
	Title         string       `json:"title" validate:"required,notblank,max=255"`
	Description   *string      `json:"description,omitempty"`
	OfferType     OfferType    `json:"offerType" validate:"required,oneof=salon product service"`
	ProductID     *string      `json:"productId,omitempty" validate:"omitempty,notblank"`
	ServiceID     *string      `json:"serviceId,omitempty" validate:"omitempty,notblank"`
	DiscountType  DiscountType `json:"discountType" validate:"required,oneof=percentage flat"`
	DiscountValue string       `json:"discountValue" validate:"required,decimal"`
	StartsAt      string       `json:"startsAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt        string       `json:"endsAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Image         *ImageUpload `json:"-" validate:"-"`
}

// UpdateOfferRequest carries only the changed fields. Offer type and target
// ids cannot be changed after creation.
type UpdateOfferRequest struct {
	Title         *string      `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Description   *string      `json:"description,omitempty"`
	DiscountValue *string      `json:"discountValue,omitempty" validate:"omitempty,decimal"`
	StartsAt      *string      `json:"startsAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt        *string      `json:"endsAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Image         *ImageUpload `json:"-" validate:"-"`
}

// Attachment returns the image to upload, if any.
func (r *CreateOfferRequest) Attachment() *ImageUpload {
	return r.Image
}

// Attachment returns the replacement image, if any.
func (r *UpdateOfferRequest) Attachment() *ImageUpload {
	return r.Image
}

// IsEmpty reports whether the update carries no field at all.
func (r *UpdateOfferRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.DiscountValue == nil &&
		r.StartsAt == nil && r.EndsAt == nil && r.Image == nil
}

// ToggleOfferRequest is the JSON body of PATCH /api/offers/:id/toggle.
type ToggleOfferRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ValidateOfferRequest asks whether an offer applies to an amount and target.
type ValidateOfferRequest struct {
	OfferID   string   `json:"offerId" validate:"required,notblank"`
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
	SalonID   string   `json:"salonId" validate:"required,notblank"`
	ProductID *string  `json:"productId,omitempty"`
	ServiceID *string  `json:"serviceId,omitempty"`
}

// ValidateOfferResult is the outcome of a redemption check. Reason names the
// failed rule when Valid is false.
type ValidateOfferResult struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalAmount    float64 `json:"finalAmount"`
	Reason         string  `json:"reason,omitempty"`
}

// OfferPage is one page of offers plus its pagination metadata.
type OfferPage struct {
	Offers     []Offer    `json:"offers"`
	Pagination Pagination `json:"pagination"`
}
