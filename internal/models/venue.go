package models

type Venue struct {
	ID       int64
	Name     *string
	QRID     string
	Category string
	Number   *int32
}

type QRCode struct {
	ID      string
	URL     string
	VenueID int64
}

// VenueDetail is a venue joined with its QR code.
type VenueDetail struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	QRID     string `json:"qr_id"`
	QRURL    string `json:"qr_url"`
}
