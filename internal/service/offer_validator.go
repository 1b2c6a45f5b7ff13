package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

// Reasons reported when an offer does not apply.
const (
	ReasonSalonMismatch   = "offer belongs to a different salon"
	ReasonProductMismatch = "offer does not apply to this product"
	ReasonServiceMismatch = "offer does not apply to this service"
	ReasonNotActive       = "offer is not currently active"
)

// DiscountFor computes the discount an offer grants on amount and the amount left
// to pay. The discount never exceeds the amount and the final amount is never negative.
func DiscountFor(o *model.Offer, amount decimal.Decimal) (discount, final decimal.Decimal) {
	switch o.DiscountType {
	case model.DiscountPercentage:
		discount = amount.Mul(o.DiscountValue).Div(hundred)
	case model.DiscountFlat:
		discount = decimal.Min(o.DiscountValue, amount)
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	final = amount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return discount.Round(2), final.Round(2)
}

func targetMatches(offerTarget, requested *string) bool {
	return offerTarget != nil && requested != nil && *offerTarget == *requested
}

// EvaluateRedemption decides whether o applies to req at now. The request must
// already be well formed; a non-applicable offer is reported through the result,
// never as an error.
func EvaluateRedemption(o *model.Offer, req *model.ValidateOfferRequest, now time.Time) *model.ValidateOfferResult {
	amount := decimal.NewFromFloat(*req.Amount)
	notApplicable := func(reason string) *model.ValidateOfferResult {
		return &model.ValidateOfferResult{
			Valid:       false,
			FinalAmount: amount.Round(2).InexactFloat64(),
			Reason:      reason,
		}
	}

	if o.SalonID != req.SalonID {
		return notApplicable(ReasonSalonMismatch)
	}
	switch o.OfferType {
	case model.OfferTypeProduct:
		if !targetMatches(o.ProductID, req.ProductID) {
			return notApplicable(ReasonProductMismatch)
		}
	case model.OfferTypeService:
		if !targetMatches(o.ServiceID, req.ServiceID) {
			return notApplicable(ReasonServiceMismatch)
		}
	}
	if !model.IsCurrentlyRedeemable(o, now) {
		return notApplicable(ReasonNotActive)
	}

	discount, final := DiscountFor(o, amount)
	return &model.ValidateOfferResult{
		Valid:          true,
		DiscountAmount: discount.InexactFloat64(),
		FinalAmount:    final.InexactFloat64(),
	}
}
