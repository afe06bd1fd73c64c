package repository

import (
	"context"

	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
)

type QRCodeRepository struct {
	db database.DBTX
}

func NewQRCodeRepository(db database.DBTX) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

func (r *QRCodeRepository) Create(ctx context.Context, qr models.QRCode) error {
	const query = `INSERT INTO qr_code (id, url, venue_id) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, qr.ID, qr.URL, qr.VenueID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
