package model

import "time"

// OfferStatus is the lifecycle state of an offer. It is derived, never stored.
type OfferStatus string

const (
	StatusInactive  OfferStatus = "inactive"
	StatusScheduled OfferStatus = "scheduled"
	StatusActive    OfferStatus = "active"
	StatusExpired   OfferStatus = "expired"
)

// EvaluateStatus derives the status of an offer at now. The checks run in a
// fixed order: the active flag wins over the time window, and the window is
// closed on both ends.
func EvaluateStatus(o *Offer, now time.Time) OfferStatus {
	switch {
	case !o.IsActive:
		return StatusInactive
	case now.Before(o.StartsAt):
		return StatusScheduled
	case now.After(o.EndsAt):
		return StatusExpired
	default:
		return StatusActive
	}
}

// IsCurrentlyRedeemable reports whether the offer may be applied to a transaction at now.
func IsCurrentlyRedeemable(o *Offer, now time.Time) bool {
	return EvaluateStatus(o, now) == StatusActive
}
