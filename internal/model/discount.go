package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatError is returned when a discount cannot be rendered.
type FormatError struct {
	DiscountType  DiscountType
	DiscountValue string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot format %q discount value %q", e.DiscountType, e.DiscountValue)
}

// DiscountScale is the number of decimal places a stored discount value keeps.
const DiscountScale = 2

// MaxDiscountValue is the smallest value that no longer fits the discount_value column.
var MaxDiscountValue = decimal.New(1, 10)

// DiscountFits reports whether d is stored exactly: at most two decimal places and
// ten integer digits.
func DiscountFits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(DiscountScale)) && d.Abs().LessThan(MaxDiscountValue)
}

// FormatDiscount renders a discount for display: "25% OFF" or "$10.00 OFF".
// Percentages keep the value as given; flat amounts always show two decimals.
func FormatDiscount(discountType DiscountType, discountValue string) (string, error) {
	raw := strings.TrimSpace(discountValue)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return "", &FormatError{DiscountType: discountType, DiscountValue: discountValue}
	}

	switch discountType {
	case DiscountPercentage:
		return raw + "% OFF", nil
	case DiscountFlat:
		return "$" + value.StringFixed(2) + " OFF", nil
	default:
		return "", &FormatError{DiscountType: discountType, DiscountValue: discountValue}
	}
}

// DiscountLabel formats the offer's own discount.
func (o *Offer) DiscountLabel() (string, error) {
	return FormatDiscount(o.DiscountType, o.DiscountValue.String())
}

// View decorates the offer with its status and discount label at now.
// When the discount cannot be formatted the view is still returned, with an empty
// label, alongside the *FormatError.
func (o *Offer) View(now time.Time) (OfferView, error) {
	label, err := o.DiscountLabel()
	return OfferView{Offer: *o, Status: EvaluateStatus(o, now), DiscountLabel: label}, err
}
