package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"studentengagement/api/internal/apperr"
	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/repository"
)

const (
	listTimeLayout   = "Monday, 02 Jan 2006"
	detailTimeLayout = "Monday 02 Jan 06"
)

// Layouts produced by timestamptz::text and timestamp::text, plus RFC 3339.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

type SessionService struct {
	db    TxRunner
	repos repository.Manager
	log   zerolog.Logger
	now   func() time.Time
}

func NewSessionService(db TxRunner, repos repository.Manager, log zerolog.Logger) *SessionService {
	return &SessionService{
		db:    db,
		repos: repos,
		log:   log,
		now:   utcNow,
	}
}

type SessionSummary struct {
	ID           int64      `json:"id"`
	Description  string     `json:"description"`
	UserID       int64      `json:"user_id"`
	VenueID      int64      `json:"venue_id"`
	PunchInTime  string     `json:"punch_in_time"`
	PunchOutTime *time.Time `json:"punch_out_time"`
	Duration     *string    `json:"duration"`
	IsActive     bool       `json:"is_active"`
}

func (s *SessionService) ListUserSessions(ctx context.Context, userID int64) ([]SessionSummary, error) {
	sessions, err := s.repos.Sessions(s.db.Querier()).ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:           session.ID,
			Description:  session.Description,
			UserID:       session.UserID,
			VenueID:      session.VenueID,
			PunchInTime:  session.PunchInTime.Format(listTimeLayout),
			PunchOutTime: session.PunchOutTime,
			Duration:     session.Duration,
			IsActive:     session.IsActive,
		})
	}
	return summaries, nil
}

type SessionView struct {
	ID            int64   `json:"id"`
	Description   string  `json:"description"`
	UserID        int64   `json:"user_id"`
	PunchIn       string  `json:"punch_in"`
	PunchOut      *string `json:"punch_out"`
	IsActive      bool    `json:"is_active"`
	VenueID       int64   `json:"venue_id"`
	VenueCategory string  `json:"venue_category"`
}

func (s *SessionService) GetSession(ctx context.Context, id int64) (SessionView, error) {
	detail, err := s.repos.Sessions(s.db.Querier()).GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return SessionView{}, apperr.New(apperr.ErrNotFound, "Resource Not Found", apperr.Detail{"session_id": id})
		}
		return SessionView{}, apperr.Persistence("select session", err)
	}

	punchIn, err := parseStoredTime(detail.PunchInTime)
	if err != nil {
		return SessionView{}, apperr.Wrap(apperr.ErrInvalidTimestamp, "cannot parse punch_in_time", err)
	}

	view := SessionView{
		ID:            detail.ID,
		Description:   detail.Description,
		UserID:        detail.UserID,
		PunchIn:       punchIn.Format(detailTimeLayout),
		IsActive:      detail.IsActive,
		VenueID:       detail.VenueID,
		VenueCategory: detail.VenueCategory,
	}

	if detail.PunchOutTime != nil {
		punchOut, err := parseStoredTime(*detail.PunchOutTime)
		if err != nil {
			return SessionView{}, apperr.Wrap(apperr.ErrInvalidTimestamp, "cannot parse punch_out_time", err)
		}
		formatted := punchOut.Format(detailTimeLayout)
		view.PunchOut = &formatted
	}

	return view, nil
}

func parseStoredTime(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range storedTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

type RegisterInput struct {
	UserID      int64
	VenueID     int64
	Description string
}

type RegisterResult struct {
	ID          int64
	UserID      int64
	VenueID     int64
	PunchInTime time.Time
	IsActive    bool
	// Existing is set when an open session for the pair was returned instead of a new one.
	Existing bool
}

// registerAttempts bounds how often a lost insert race is retried when the
// winning session is gone again by the time it is re-read.
const registerAttempts = 3

func (s *SessionService) RegisterSession(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	for attempt := 1; ; attempt++ {
		result, err := s.registerOnce(ctx, input)
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, repository.ErrUnknownRef):
			return RegisterResult{}, apperr.New(apperr.ErrValidation, "unknown user or venue", apperr.Detail{
				"user_id":  input.UserID,
				"venue_id": input.VenueID,
			})
		case !errors.Is(err, repository.ErrDuplicate):
			return RegisterResult{}, apperr.Persistence("insert session", err)
		}

		// A concurrent request opened the session first; the failed insert
		// aborted our transaction so the winner is read outside it.
		active, findErr := s.repos.Sessions(s.db.Querier()).FindActive(ctx, input.UserID, input.VenueID)
		if findErr == nil {
			return existingSession(active), nil
		}
		if !errors.Is(findErr, repository.ErrSessionNotFound) {
			return RegisterResult{}, apperr.Persistence("select active session", findErr)
		}
		if attempt == registerAttempts {
			return RegisterResult{}, apperr.Persistence("insert session", err)
		}
		s.log.Debug().
			Int64("user_id", input.UserID).
			Int64("venue_id", input.VenueID).
			Int("attempt", attempt).
			Msg("racing session closed before re-read, retrying")
	}
}

func (s *SessionService) registerOnce(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	var result RegisterResult
	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		sessions := s.repos.Sessions(tx)

		active, err := sessions.FindActive(ctx, input.UserID, input.VenueID)
		if err == nil {
			result = existingSession(active)
			return nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return apperr.Persistence("select active session", err)
		}

		now := s.now()
		id, err := sessions.Create(ctx, models.Session{
			Description: input.Description,
			UserID:      input.UserID,
			VenueID:     input.VenueID,
			PunchInTime: now,
		})
		if err != nil {
			return err
		}

		result = RegisterResult{
			ID:          id,
			UserID:      input.UserID,
			VenueID:     input.VenueID,
			PunchInTime: now,
			IsActive:    true,
		}
		return nil
	})
	return result, err
}

func existingSession(session models.Session) RegisterResult {
	return RegisterResult{
		ID:          session.ID,
		UserID:      session.UserID,
		VenueID:     session.VenueID,
		PunchInTime: session.PunchInTime,
		IsActive:    true,
		Existing:    true,
	}
}

func (s *SessionService) CloseSession(ctx context.Context, id int64) (models.ClosedSession, error) {
	var closed models.ClosedSession
	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		sessions := s.repos.Sessions(tx)

		if _, err := sessions.LockActiveByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return apperr.New(apperr.ErrNotFound, "session is already closed", apperr.Detail{"session": id})
			}
			return apperr.Persistence("lock session", err)
		}

		var err error
		closed, err = sessions.Close(ctx, id, s.now())
		if err != nil {
			return apperr.Persistence("close session", err)
		}
		return nil
	})
	if err != nil {
		return models.ClosedSession{}, apperr.Persistence("close session", err)
	}
	return closed, nil
}
