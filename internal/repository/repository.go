package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrVenueNotFound   = errors.New("venue not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrUnknownRef      = errors.New("referenced row does not exist")
)

type Users interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
	Create(ctx context.Context, user models.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type Venues interface {
	GetByID(ctx context.Context, id int64) (models.Venue, error)
	GetDetail(ctx context.Context, id int64) (models.VenueDetail, error)
	Create(ctx context.Context, venue models.Venue) (models.Venue, error)
}

type QRCodes interface {
	Create(ctx context.Context, qr models.QRCode) error
}

type Sessions interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Session, error)
	GetDetail(ctx context.Context, id int64) (models.SessionDetail, error)
	FindActive(ctx context.Context, userID, venueID int64) (models.Session, error)
	Create(ctx context.Context, session models.Session) (int64, error)
	LockActiveByID(ctx context.Context, id int64) (models.Session, error)
	Close(ctx context.Context, id int64, at time.Time) (models.ClosedSession, error)
}

// Manager vends repositories bound to a pool or an open transaction.
type Manager interface {
	Users(db database.DBTX) Users
	Venues(db database.DBTX) Venues
	QRCodes(db database.DBTX) QRCodes
	Sessions(db database.DBTX) Sessions
}

type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) Users(db database.DBTX) Users {
	return NewUserRepository(db)
}

func (m *PostgresManager) Venues(db database.DBTX) Venues {
	return NewVenueRepository(db)
}

func (m *PostgresManager) QRCodes(db database.DBTX) QRCodes {
	return NewQRCodeRepository(db)
}

func (m *PostgresManager) Sessions(db database.DBTX) Sessions {
	return NewSessionRepository(db)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
