package models

import "time"

// Session is one attendance interval of a user at a venue.
type Session struct {
	ID           int64
	Description  string
	UserID       int64
	VenueID      int64
	PunchInTime  time.Time
	PunchOutTime *time.Time
	Duration     *string
	IsActive     bool
}

// SessionDetail is a session joined with its venue category. Times are kept
// as the text the database returned so callers decide how to parse them.
type SessionDetail struct {
	ID            int64
	Description   string
	UserID        int64
	VenueID       int64
	PunchInTime   string
	PunchOutTime  *string
	IsActive      bool
	VenueCategory string
}

// ClosedSession is the result of punching out.
type ClosedSession struct {
	ID           int64
	PunchInTime  time.Time
	PunchOutTime time.Time
	Duration     string
}
