package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentengagement/api/internal/apperr"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/qrcode"
)

func newVenueService(t *testing.T) (*VenueService, *memStore, *fakeObjectStore) {
	t.Helper()
	store := newMemStore()
	objects := &fakeObjectStore{}
	return NewVenueService(&fakeDB{}, store, objects, nil, nopLog), store, objects
}

func TestVenueService_AddVenue(t *testing.T) {
	svc, store, objects := newVenueService(t)

	res, err := svc.AddVenue(context.Background(), 101, "library")
	require.NoError(t, err)

	assert.Equal(t, VenueResult{
		ID:       101,
		Category: "library",
		QRURL:    "https://cdn.example.edu/qr/101_library_StudentEngagement",
	}, res)

	require.Len(t, objects.uploads, 1)
	assert.Equal(t, "101_library_StudentEngagement", objects.uploads[0].key)
	assert.Equal(t, "image/png", objects.uploads[0].contentType)
	assert.Positive(t, objects.uploads[0].size)

	qrID := qrcode.ID("101_library_StudentEngagement")
	require.Len(t, store.qrCodes, 1)
	assert.Equal(t, models.QRCode{ID: qrID, URL: res.QRURL, VenueID: 101}, store.qrCodes[qrID])
	require.Len(t, store.venues, 1)
	assert.Equal(t, qrID, store.venues[101].QRID)
}

func TestVenueService_AddVenue_Exists(t *testing.T) {
	svc, store, objects := newVenueService(t)
	store.venues[101] = models.Venue{ID: 101, Category: "library"}

	_, err := svc.AddVenue(context.Background(), 101, "gym")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Empty(t, objects.uploads)

	detail := apperr.DetailOf(err)
	assert.Equal(t, int64(101), detail["venue_id"])
	assert.Equal(t, map[string]any{"id": int64(101), "category": "library"}, detail["venue"])
}

func TestVenueService_AddVenue_UploadFailure(t *testing.T) {
	svc, store, objects := newVenueService(t)
	objects.err = errors.New("bucket unreachable")

	_, err := svc.AddVenue(context.Background(), 101, "library")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpload))
	assert.False(t, errors.Is(err, apperr.ErrPersistence))
	assert.Empty(t, store.qrCodes)
	assert.Empty(t, store.venues)
}

func TestVenueService_AddVenue_EmptyCategory(t *testing.T) {
	svc, _, objects := newVenueService(t)

	_, err := svc.AddVenue(context.Background(), 101, "  ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Empty(t, objects.uploads)
}

func TestVenueService_GetVenue(t *testing.T) {
	svc, _, _ := newVenueService(t)
	created, err := svc.AddVenue(context.Background(), 101, "library")
	require.NoError(t, err)

	detail, err := svc.GetVenue(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "library", detail.Category)
	assert.Equal(t, qrcode.ID("101_library_StudentEngagement"), detail.QRID)
	assert.Equal(t, created.QRURL, detail.QRURL)

	_, err = svc.GetVenue(context.Background(), 102)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
