package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
)

type SessionRepository struct {
	db database.DBTX
}

func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts an open session and returns its id. A second open session
// for the same user and venue violates session_one_active_per_pair and yields
// ErrDuplicate. An unknown user or venue yields ErrUnknownRef.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) (int64, error) {
	const query = `
		INSERT INTO session (description, user_id, venue_id, punch_in_time, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		session.Description,
		session.UserID,
		session.VenueID,
		session.PunchInTime,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownRef
		}
		return 0, err
	}
	return id, nil
}

func (r *SessionRepository) FindActive(ctx context.Context, userID, venueID int64) (models.Session, error) {
	const query = `
		SELECT id, description, user_id, venue_id, punch_in_time, punch_out_time, duration::text, is_active
		FROM session
		WHERE user_id = $1 AND venue_id = $2 AND is_active = TRUE
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID, venueID))
}

// LockActiveByID returns the open session with the given id and holds a row
// lock on it until the surrounding transaction ends.
func (r *SessionRepository) LockActiveByID(ctx context.Context, id int64) (models.Session, error) {
	const query = `
		SELECT id, description, user_id, venue_id, punch_in_time, punch_out_time, duration::text, is_active
		FROM session
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// Close punches out the session located by id. The duration is computed by
// the database as age(punch_out_time, punch_in_time).
func (r *SessionRepository) Close(ctx context.Context, id int64, at time.Time) (models.ClosedSession, error) {
	const query = `
		UPDATE session
		SET punch_out_time = $2,
		    duration = age($2, punch_in_time),
		    is_active = FALSE
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, punch_in_time, punch_out_time, duration::text
	`

	var closed models.ClosedSession
	if err := r.db.QueryRow(ctx, query, id, at).Scan(
		&closed.ID,
		&closed.PunchInTime,
		&closed.PunchOutTime,
		&closed.Duration,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ClosedSession{}, ErrSessionNotFound
		}
		return models.ClosedSession{}, err
	}
	return closed, nil
}

// GetDetail returns the session joined with its venue category. Times are
// returned as text.
func (r *SessionRepository) GetDetail(ctx context.Context, id int64) (models.SessionDetail, error) {
	const query = `
		SELECT s.id, s.description, s.user_id, s.venue_id,
		       s.punch_in_time::text, s.punch_out_time::text, s.is_active,
		       v.category
		FROM session s
		INNER JOIN venue v ON s.venue_id = v.id
		WHERE s.id = $1
	`

	var detail models.SessionDetail
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.Description,
		&detail.UserID,
		&detail.VenueID,
		&detail.PunchInTime,
		&detail.PunchOutTime,
		&detail.IsActive,
		&detail.VenueCategory,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SessionDetail{}, ErrSessionNotFound
		}
		return models.SessionDetail{}, err
	}
	return detail, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Session, error) {
	const query = `
		SELECT id, description, user_id, venue_id, punch_in_time, punch_out_time, duration::text, is_active
		FROM session
		WHERE user_id = $1
		ORDER BY punch_in_time
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.Description,
			&session.UserID,
			&session.VenueID,
			&session.PunchInTime,
			&session.PunchOutTime,
			&session.Duration,
			&session.IsActive,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) scanOne(row pgx.Row) (models.Session, error) {
	var session models.Session
	if err := row.Scan(
		&session.ID,
		&session.Description,
		&session.UserID,
		&session.VenueID,
		&session.PunchInTime,
		&session.PunchOutTime,
		&session.Duration,
		&session.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}
