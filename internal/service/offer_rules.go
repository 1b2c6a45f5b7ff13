package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

var hundred = decimal.NewFromInt(100)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRequest}, args...)...)
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid("%s must be an RFC3339 timestamp", field)
	}
	return t.UTC(), nil
}

func parseDiscountValue(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, invalid("discountValue must be a number")
	}
	return d, nil
}

func nonBlank(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// checkOfferInvariants verifies the rules every stored offer must satisfy.
func checkOfferInvariants(o *model.Offer) error {
	if strings.TrimSpace(o.Title) == "" {
		return invalid("title is required")
	}

	switch o.OfferType {
	case model.OfferTypeProduct:
		if o.ProductID == nil {
			return invalid("productId is required for product offers")
		}
		if o.ServiceID != nil {
			return invalid("serviceId must be empty for product offers")
		}
	case model.OfferTypeService:
		if o.ServiceID == nil {
			return invalid("serviceId is required for service offers")
		}
		if o.ProductID != nil {
			return invalid("productId must be empty for service offers")
		}
	case model.OfferTypeSalon:
		if o.ProductID != nil || o.ServiceID != nil {
			return invalid("salon offers cannot target a product or service")
		}
	default:
		return invalid("offerType must be one of salon, product, service")
	}

	switch o.DiscountType {
	case model.DiscountPercentage:
		if o.DiscountValue.IsNegative() || o.DiscountValue.GreaterThan(hundred) {
			return invalid("discountValue must be between 0 and 100 for percentage offers")
		}
	case model.DiscountFlat:
		if o.DiscountValue.IsNegative() {
			return invalid("discountValue must not be negative for flat offers")
		}
	default:
		return invalid("discountType must be one of percentage, flat")
	}
	if !model.DiscountFits(o.DiscountValue) {
		return invalid("discountValue must have at most %d decimal places and be less than %s",
			model.DiscountScale, model.MaxDiscountValue.String())
	}

	if !o.StartsAt.Before(o.EndsAt) {
		return invalid("startsAt must be before endsAt")
	}
	return nil
}

// buildOffer converts a create request into an offer that satisfies the invariants.
func buildOffer(req *model.CreateOfferRequest) (*model.Offer, error) {
	value, err := parseDiscountValue(req.DiscountValue)
	if err != nil {
		return nil, err
	}
	startsAt, err := parseTimestamp("startsAt", req.StartsAt)
	if err != nil {
		return nil, err
	}
	endsAt, err := parseTimestamp("endsAt", req.EndsAt)
	if err != nil {
		return nil, err
	}

	offer := &model.Offer{
		SalonID:       strings.TrimSpace(req.SalonID),
		Title:         strings.TrimSpace(req.Title),
		Description:   nonBlank(req.Description),
		OfferType:     req.OfferType,
		ProductID:     nonBlank(req.ProductID),
		ServiceID:     nonBlank(req.ServiceID),
		DiscountType:  req.DiscountType,
		DiscountValue: value,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		IsActive:      true,
	}
	if err := checkOfferInvariants(offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// applyUpdate merges the present fields of req into o and re-checks the invariants.
// An empty description clears it.
func applyUpdate(o *model.Offer, req *model.UpdateOfferRequest) error {
	if req.Title != nil {
		o.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		o.Description = nonBlank(req.Description)
	}
	if req.DiscountValue != nil {
		value, err := parseDiscountValue(*req.DiscountValue)
		if err != nil {
			return err
		}
		o.DiscountValue = value
	}
	if req.StartsAt != nil {
		t, err := parseTimestamp("startsAt", *req.StartsAt)
		if err != nil {
			return err
		}
		o.StartsAt = t
	}
	if req.EndsAt != nil {
		t, err := parseTimestamp("endsAt", *req.EndsAt)
		if err != nil {
			return err
		}
		o.EndsAt = t
	}
	return checkOfferInvariants(o)
}
