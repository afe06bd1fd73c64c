package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addVenueRequest struct {
	VenueID  *int64 `form:"venue_id" binding:"required"`
	Category string `form:"category" binding:"required"`
}

func (h HandlerSet) AddVenue(c *gin.Context) {
	var req addVenueRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	venue, err := h.venues.AddVenue(c.Request.Context(), *req.VenueID, req.Category)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"venue": gin.H{
			"id":          venue.ID,
			"qr_code_url": venue.QRURL,
			"category":    venue.Category,
		},
		"message": "qr_code created successfully",
	})
}

func (h HandlerSet) GetVenue(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}

	venue, err := h.venues.GetVenue(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       venue.ID,
		"category": venue.Category,
		"qr_code": gin.H{
			"id":  venue.QRID,
			"url": venue.QRURL,
		},
	})
}
