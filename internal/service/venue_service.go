package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"studentengagement/api/internal/apperr"
	"studentengagement/api/internal/cache"
	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/qrcode"
	"studentengagement/api/internal/repository"
	"studentengagement/api/internal/storage"
)

type VenueService struct {
	db    TxRunner
	repos repository.Manager
	store storage.ObjectStore
	cache *cache.VenueCache
	log   zerolog.Logger
}

// NewVenueService accepts a nil cache.
func NewVenueService(db TxRunner, repos repository.Manager, store storage.ObjectStore, venueCache *cache.VenueCache, log zerolog.Logger) *VenueService {
	return &VenueService{
		db:    db,
		repos: repos,
		store: store,
		cache: venueCache,
		log:   log,
	}
}

type VenueResult struct {
	ID       int64
	Category string
	QRURL    string
}

// AddVenue renders and uploads the venue QR image, then records the QR code
// and the venue. An image uploaded before a failed insert stays in the bucket.
func (s *VenueService) AddVenue(ctx context.Context, venueID int64, category string) (VenueResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return VenueResult{}, apperr.New(apperr.ErrValidation, "category required", apperr.Detail{"venue_id": venueID})
	}

	var result VenueResult
	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		venues := s.repos.Venues(tx)

		existing, err := venues.GetByID(ctx, venueID)
		if err == nil {
			return venueExists(existing)
		}
		if !errors.Is(err, repository.ErrVenueNotFound) {
			return apperr.Persistence("select venue", err)
		}

		img, err := qrcode.Generate(venueID, category)
		if err != nil {
			return apperr.Wrap(apperr.ErrValidation, "cannot encode qr code", err)
		}

		url, err := s.store.Upload(ctx, img.Tag, img.PNG, qrcode.ContentType)
		if err != nil {
			s.log.Error().Err(err).Str("tag", img.Tag).Msg("qr upload failed")
			return apperr.Wrap(apperr.ErrUpload, "file upload error", err)
		}

		if err := s.repos.QRCodes(tx).Create(ctx, models.QRCode{ID: img.ID, URL: url, VenueID: venueID}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.New(apperr.ErrConflict, "venue already exist", apperr.Detail{"venue_id": venueID})
			}
			return apperr.Persistence("insert qr_code", err)
		}

		venue, err := venues.Create(ctx, models.Venue{ID: venueID, QRID: img.ID, Category: category})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.New(apperr.ErrConflict, "venue already exist", apperr.Detail{"venue_id": venueID})
			}
			return apperr.Persistence("insert venue", err)
		}

		result = VenueResult{ID: venue.ID, Category: venue.Category, QRURL: url}
		return nil
	})
	if err != nil {
		return VenueResult{}, apperr.Persistence("add venue", err)
	}

	s.log.Info().Int64("venue_id", result.ID).Str("category", result.Category).Msg("venue created")
	return result, nil
}

func venueExists(venue models.Venue) error {
	return apperr.New(apperr.ErrConflict, "venue already exist", apperr.Detail{
		"venue_id": venue.ID,
		"venue": map[string]any{
			"id":       venue.ID,
			"category": venue.Category,
		},
	})
}

func (s *VenueService) GetVenue(ctx context.Context, id int64) (models.VenueDetail, error) {
	detail, hit, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Int64("venue_id", id).Msg("venue cache read failed")
	}
	if hit {
		return detail, nil
	}

	detail, err = s.repos.Venues(s.db.Querier()).GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return models.VenueDetail{}, apperr.New(apperr.ErrNotFound, "Resource Not Found", apperr.Detail{"venue_id": id})
		}
		return models.VenueDetail{}, apperr.Persistence("select venue", err)
	}

	if err := s.cache.Set(ctx, detail); err != nil {
		s.log.Warn().Err(err).Int64("venue_id", id).Msg("venue cache write failed")
	}
	return detail, nil
}
