package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

// OfferQuery is a normalized listing request. When ActiveAt is set only offers
// that are enabled and whose window contains ActiveAt are returned.
type OfferQuery struct {
	Filter   model.OfferFilter
	ActiveAt *time.Time
}

// OfferRepositoryInterface defines the interface for offer data access.
type OfferRepositoryInterface interface {
	Insert(ctx context.Context, offer *model.Offer) error
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	Update(ctx context.Context, offer *model.Offer) error
	SetActive(ctx context.Context, id string, active bool) (*model.Offer, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q OfferQuery) ([]model.Offer, int, error)
	// NextStart returns the earliest startsAt after the given time among enabled,
	// not yet ended offers matching the filter's ids, or nil when there is none.
	NextStart(ctx context.Context, filter model.OfferFilter, after time.Time) (*time.Time, error)
}

// PublicOfferCache caches pages of the public active listing. Implementations
// are best effort: failures degrade to cache misses. Set keeps a page for at most
// maxAge when maxAge is positive, otherwise for the cache's own TTL.
type PublicOfferCache interface {
	Get(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, bool)
	Set(ctx context.Context, filter model.OfferFilter, page *model.OfferPage, maxAge time.Duration)
	Invalidate(ctx context.Context)
}

// ImageStore persists offer images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type noopCache struct{}

func (noopCache) Get(context.Context, model.OfferFilter) (*model.OfferPage, bool)         { return nil, false }
func (noopCache) Set(context.Context, model.OfferFilter, *model.OfferPage, time.Duration) {}
func (noopCache) Invalidate(context.Context)                                              {}

// OfferService provides business logic for offer operations.
type OfferService struct {
	repo   OfferRepositoryInterface
	cache  PublicOfferCache
	images ImageStore
	now    func() time.Time
}

// NewOfferService creates a new OfferService. cache and images may be nil:
// the public listing is then always read from the repository and image uploads are rejected.
func NewOfferService(repo OfferRepositoryInterface, cache PublicOfferCache, images ImageStore) *OfferService {
	if cache == nil {
		cache = noopCache{}
	}
	return &OfferService{repo: repo, cache: cache, images: images, now: time.Now}
}

// WithClock replaces the time source. Primarily used for testing.
func (s *OfferService) WithClock(now func() time.Time) *OfferService {
	s.now = now
	return s
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *OfferService) uploadImage(ctx context.Context, salonID string, img *model.ImageUpload) (*string, error) {
	if img == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, invalid("image uploads are not enabled")
	}
	if len(img.Content) == 0 {
		return nil, invalid("image is empty")
	}

	key := fmt.Sprintf("offers/%s/%s%s", salonID, uuid.NewString(), strings.ToLower(path.Ext(img.Filename)))
	url, err := s.images.Upload(ctx, key, img.ContentType, img.Content)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return &url, nil
}

// Create validates and stores a new offer. New offers start enabled.
// Returns ErrInvalidRequest (wrapped) if the request violates an offer invariant.
func (s *OfferService) Create(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil {
		return nil, ErrInvalidRequest
	}

	offer, err := buildOffer(req)
	if err != nil {
		return nil, err
	}

	offer.Image, err = s.uploadImage(ctx, offer.SalonID, req.Image)
	if err != nil {
		return nil, err
	}

	offer.ID = uuid.NewString()
	if err := s.repo.Insert(ctx, offer); err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}
	s.cache.Invalidate(ctx)

	log.Info().
		Str("offer_id", offer.ID).
		Str("salon_id", offer.SalonID).
		Str("offer_type", string(offer.OfferType)).
		Msg("offer created")
	return offer, nil
}

// GetByID retrieves a single offer.
// Returns ErrOfferNotFound if the offer doesn't exist.
func (s *OfferService) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	if !validID(id) {
		return nil, ErrOfferNotFound
	}
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// Update applies a partial update. Offer type and targets are immutable.
func (s *OfferService) Update(ctx context.Context, id string, req *model.UpdateOfferRequest) (*model.Offer, error) {
	if req == nil || req.IsEmpty() {
		return nil, invalid("no fields to update")
	}

	offer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(offer, req); err != nil {
		return nil, err
	}
	if req.Image != nil {
		offer.Image, err = s.uploadImage(ctx, offer.SalonID, req.Image)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("update offer: %w", err)
	}
	s.cache.Invalidate(ctx)

	log.Info().Str("offer_id", offer.ID).Msg("offer updated")
	return offer, nil
}

// SetActive flips the owner-controlled active flag.
func (s *OfferService) SetActive(ctx context.Context, id string, active bool) (*model.Offer, error) {
	if !validID(id) {
		return nil, ErrOfferNotFound
	}
	offer, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("set offer active: %w", err)
	}
	s.cache.Invalidate(ctx)

	log.Info().Str("offer_id", id).Bool("is_active", active).Msg("offer status toggled")
	return offer, nil
}

// Delete removes an offer permanently. Deleting a missing offer returns ErrOfferNotFound.
func (s *OfferService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrOfferNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return ErrOfferNotFound
		}
		return fmt.Errorf("delete offer: %w", err)
	}
	s.cache.Invalidate(ctx)

	log.Info().Str("offer_id", id).Msg("offer deleted")
	return nil
}

// List returns one page of offers matching filter. ActiveOnly restricts the
// listing to enabled offers regardless of their time window.
func (s *OfferService) List(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error) {
	filter = filter.Normalize()
	offers, total, err := s.repo.List(ctx, OfferQuery{Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return &model.OfferPage{
		Offers:     offers,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// ListActivePublic returns the offers that are redeemable right now.
// Cached pages are re-evaluated so offers that expired since caching are dropped,
// and a page is never cached past the next startsAt of a matching offer, so a
// scheduled offer appears as soon as its window opens.
func (s *OfferService) ListActivePublic(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, error) {
	filter = filter.Normalize()
	filter.ActiveOnly = false
	now := s.now()

	if page, ok := s.cache.Get(ctx, filter); ok {
		return stillActive(page, now), nil
	}

	offers, total, err := s.repo.List(ctx, OfferQuery{Filter: filter, ActiveAt: &now})
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}
	page := &model.OfferPage{
		Offers:     offers,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}
	s.cachePublicPage(ctx, filter, page, now)
	return page, nil
}

// cachePublicPage stores page until the next matching offer starts. Nothing is
// cached when that start cannot be determined.
func (s *OfferService) cachePublicPage(ctx context.Context, filter model.OfferFilter, page *model.OfferPage, now time.Time) {
	if _, disabled := s.cache.(noopCache); disabled {
		return
	}

	next, err := s.repo.NextStart(ctx, filter, now)
	if err != nil {
		log.Warn().Err(err).Msg("skip caching public offers: next start unknown")
		return
	}

	var maxAge time.Duration
	if next != nil {
		maxAge = next.Sub(now)
		if maxAge <= 0 {
			return
		}
	}
	s.cache.Set(ctx, filter, page, maxAge)
}

func stillActive(page *model.OfferPage, now time.Time) *model.OfferPage {
	offers := make([]model.Offer, 0, len(page.Offers))
	for i := range page.Offers {
		if model.IsCurrentlyRedeemable(&page.Offers[i], now) {
			offers = append(offers, page.Offers[i])
		}
	}
	dropped := len(page.Offers) - len(offers)
	p := page.Pagination
	return &model.OfferPage{
		Offers:     offers,
		Pagination: model.NewPagination(p.Page, p.Limit, p.Total-dropped),
	}
}

// Validate checks whether an offer applies to a purchase.
// Returns ErrInvalidRequest for malformed requests and ErrOfferNotFound for
// unknown offers; an offer that exists but does not apply yields Valid=false.
func (s *OfferService) Validate(ctx context.Context, req *model.ValidateOfferRequest) (*model.ValidateOfferResult, error) {
	if req == nil || req.Amount == nil {
		return nil, invalid("amount is required")
	}
	if *req.Amount < 0 {
		return nil, invalid("amount must not be negative")
	}
	if strings.TrimSpace(req.OfferID) == "" || strings.TrimSpace(req.SalonID) == "" {
		return nil, invalid("offerId and salonId are required")
	}

	offer, err := s.GetByID(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}

	result := EvaluateRedemption(offer, req, s.now())
	log.Debug().
		Str("offer_id", offer.ID).
		Bool("valid", result.Valid).
		Str("reason", result.Reason).
		Msg("offer validated")
	return result, nil
}
