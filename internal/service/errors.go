package service

import "errors"

var (
	// ErrOfferNotFound is returned when an offer cannot be found
	ErrOfferNotFound = errors.New("offer not found")

	// ErrInvalidRequest is returned when request data is invalid or violates an offer invariant.
	// It is wrapped with a message naming the offending field.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOfferExists is returned when an offer id collides with an existing offer
	ErrOfferExists = errors.New("offer already exists")
)
