package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
)

type VenueRepository struct {
	db database.DBTX
}

func NewVenueRepository(db database.DBTX) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) GetByID(ctx context.Context, id int64) (models.Venue, error) {
	const query = `
		SELECT id, name, qr_id, category, number
		FROM venue WHERE id = $1
	`

	var venue models.Venue
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&venue.ID,
		&venue.Name,
		&venue.QRID,
		&venue.Category,
		&venue.Number,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Venue{}, ErrVenueNotFound
		}
		return models.Venue{}, err
	}
	return venue, nil
}

func (r *VenueRepository) GetDetail(ctx context.Context, id int64) (models.VenueDetail, error) {
	const query = `
		SELECT v.id, v.category, qr.id, qr.url
		FROM venue v
		INNER JOIN qr_code qr ON v.qr_id = qr.id
		WHERE v.id = $1
	`

	var detail models.VenueDetail
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.Category,
		&detail.QRID,
		&detail.QRURL,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VenueDetail{}, ErrVenueNotFound
		}
		return models.VenueDetail{}, err
	}
	return detail, nil
}

func (r *VenueRepository) Create(ctx context.Context, venue models.Venue) (models.Venue, error) {
	const query = `
		INSERT INTO venue (id, qr_id, category)
		VALUES ($1, $2, $3)
		RETURNING id, name, qr_id, category, number
	`

	var created models.Venue
	if err := r.db.QueryRow(ctx, query, venue.ID, venue.QRID, venue.Category).Scan(
		&created.ID,
		&created.Name,
		&created.QRID,
		&created.Category,
		&created.Number,
	); err != nil {
		if isUniqueViolation(err) {
			return models.Venue{}, ErrDuplicate
		}
		return models.Venue{}, err
	}
	return created, nil
}
