package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/repository"
	"studentengagement/api/internal/security"
)

var (
	nopLog = zerolog.Nop()

	fastHash = func(password string) (string, error) {
		return security.HashPasswordWithParams(password, security.Argon2Params{
			Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16,
		})
	}
)

type fakeDB struct {
	beginErr  error
	commits   int
	rollbacks int
}

func (f *fakeDB) Querier() database.DBTX {
	return nil
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(ctx context.Context, tx database.DBTX) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	if err := fn(ctx, nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// memStore is an in-memory stand-in for the four tables.
type memStore struct {
	mu sync.Mutex

	users    map[int64]models.User
	venues   map[int64]models.Venue
	qrCodes  map[string]models.QRCode
	sessions map[int64]models.Session
	nextID   int64

	rawDetail  map[int64]models.SessionDetail
	hideActive int
	// closeWinner closes the colliding session right after a duplicate insert.
	closeWinner bool
	dbErr       error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]models.User{},
		venues:    map[int64]models.Venue{},
		qrCodes:   map[string]models.QRCode{},
		sessions:  map[int64]models.Session{},
		rawDetail: map[int64]models.SessionDetail{},
	}
}

func (m *memStore) Users(database.DBTX) repository.Users       { return memUsers{m} }
func (m *memStore) Venues(database.DBTX) repository.Venues     { return memVenues{m} }
func (m *memStore) QRCodes(database.DBTX) repository.QRCodes   { return memQRCodes{m} }
func (m *memStore) Sessions(database.DBTX) repository.Sessions { return memSessions{m} }

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.dbErr != nil {
		return models.User{}, r.m.dbErr
	}
	user, ok := r.m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r memUsers) Create(_ context.Context, user models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	r.m.users[user.ID] = user
	return nil
}

func (r memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLogin = &at
	r.m.users[id] = user
	return nil
}

func (r memUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	r.m.users[id] = user
	return nil
}

type memVenues struct{ m *memStore }

func (r memVenues) GetByID(_ context.Context, id int64) (models.Venue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.dbErr != nil {
		return models.Venue{}, r.m.dbErr
	}
	venue, ok := r.m.venues[id]
	if !ok {
		return models.Venue{}, repository.ErrVenueNotFound
	}
	return venue, nil
}

func (r memVenues) GetDetail(_ context.Context, id int64) (models.VenueDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	venue, ok := r.m.venues[id]
	if !ok {
		return models.VenueDetail{}, repository.ErrVenueNotFound
	}
	qr := r.m.qrCodes[venue.QRID]
	return models.VenueDetail{ID: venue.ID, Category: venue.Category, QRID: qr.ID, QRURL: qr.URL}, nil
}

func (r memVenues) Create(_ context.Context, venue models.Venue) (models.Venue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.venues[venue.ID]; ok {
		return models.Venue{}, repository.ErrDuplicate
	}
	r.m.venues[venue.ID] = venue
	return venue, nil
}

type memQRCodes struct{ m *memStore }

func (r memQRCodes) Create(_ context.Context, qr models.QRCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.qrCodes[qr.ID]; ok {
		return repository.ErrDuplicate
	}
	r.m.qrCodes[qr.ID] = qr
	return nil
}

type memSessions struct{ m *memStore }

func (r memSessions) ListByUser(_ context.Context, userID int64) ([]models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.dbErr != nil {
		return nil, r.m.dbErr
	}
	out := make([]models.Session, 0)
	for _, s := range r.m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchInTime.Before(out[j].PunchInTime) })
	return out, nil
}

const pgTextLayout = "2006-01-02 15:04:05.999999-07"

func (r memSessions) GetDetail(_ context.Context, id int64) (models.SessionDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if raw, ok := r.m.rawDetail[id]; ok {
		return raw, nil
	}
	s, ok := r.m.sessions[id]
	if !ok {
		return models.SessionDetail{}, repository.ErrSessionNotFound
	}
	detail := models.SessionDetail{
		ID:            s.ID,
		Description:   s.Description,
		UserID:        s.UserID,
		VenueID:       s.VenueID,
		PunchInTime:   s.PunchInTime.Format(pgTextLayout),
		IsActive:      s.IsActive,
		VenueCategory: r.m.venues[s.VenueID].Category,
	}
	if s.PunchOutTime != nil {
		out := s.PunchOutTime.Format(pgTextLayout)
		detail.PunchOutTime = &out
	}
	return detail, nil
}

func (r memSessions) FindActive(_ context.Context, userID, venueID int64) (models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.hideActive > 0 {
		r.m.hideActive--
		return models.Session{}, repository.ErrSessionNotFound
	}
	for _, s := range r.m.sessions {
		if s.UserID == userID && s.VenueID == venueID && s.IsActive {
			return s, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (r memSessions) Create(_ context.Context, session models.Session) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[session.UserID]; !ok {
		return 0, repository.ErrUnknownRef
	}
	if _, ok := r.m.venues[session.VenueID]; !ok {
		return 0, repository.ErrUnknownRef
	}
	for id, s := range r.m.sessions {
		if s.UserID == session.UserID && s.VenueID == session.VenueID && s.IsActive {
			if r.m.closeWinner {
				r.m.closeWinner = false
				s.IsActive = false
				r.m.sessions[id] = s
			}
			return 0, repository.ErrDuplicate
		}
	}
	r.m.nextID++
	session.ID = r.m.nextID
	session.IsActive = true
	r.m.sessions[session.ID] = session
	return session.ID, nil
}

func (r memSessions) LockActiveByID(_ context.Context, id int64) (models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || !s.IsActive {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (r memSessions) Close(_ context.Context, id int64, at time.Time) (models.ClosedSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || !s.IsActive {
		return models.ClosedSession{}, repository.ErrSessionNotFound
	}
	d := at.Sub(s.PunchInTime)
	duration := fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	s.PunchOutTime = &at
	s.Duration = &duration
	s.IsActive = false
	r.m.sessions[id] = s
	return models.ClosedSession{ID: id, PunchInTime: s.PunchInTime, PunchOutTime: at, Duration: duration}, nil
}

type upload struct {
	key         string
	contentType string
	size        int
}

type fakeObjectStore struct {
	uploads []upload
	err     error
}

func (f *fakeObjectStore) EnsureBucket(context.Context) error {
	return nil
}

func (f *fakeObjectStore) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload{key: key, contentType: contentType, size: len(data)})
	return "https://cdn.example.edu/qr/" + key, nil
}

var errConnReset = errors.New("connection reset by peer")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
