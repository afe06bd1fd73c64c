// Package qrcode renders the venue QR images that students scan to punch in.
package qrcode

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

const (
	ContentType = "image/png"

	tagSuffix   = "StudentEngagement"
	defaultSize = 256
)

// Image is a rendered QR code together with the text it encodes.
type Image struct {
	Tag string
	ID  string
	PNG []byte
}

// Tag returns the text encoded in a venue's QR code. It doubles as the object key.
func Tag(venueID int64, category string) string {
	return fmt.Sprintf("%d_%s_%s", venueID, category, tagSuffix)
}

// ID is the hex sha1 digest of tag, used as the qr_code primary key.
func ID(tag string) string {
	sum := sha1.Sum([]byte(tag))
	return hex.EncodeToString(sum[:])
}

func Generate(venueID int64, category string) (Image, error) {
	tag := Tag(venueID, category)
	png, err := goqr.Encode(tag, goqr.Medium, defaultSize)
	if err != nil {
		return Image{}, fmt.Errorf("encode qr %s: %w", tag, err)
	}
	return Image{Tag: tag, ID: ID(tag), PNG: png}, nil
}
