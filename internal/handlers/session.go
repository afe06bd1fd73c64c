package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studentengagement/api/internal/service"
)

func (h HandlerSet) ListUserSessions(c *gin.Context) {
	uid, ok := h.int64Param(c, "uid")
	if !ok {
		return
	}

	sessions, err := h.sessions.ListUserSessions(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid":      uid,
		"sessions": sessions,
	})
}

func (h HandlerSet) GetSession(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

type registerSessionRequest struct {
	UserID      *int64 `form:"uid" binding:"required"`
	VenueID     *int64 `form:"venue_id" binding:"required"`
	Description string `form:"desc"`
}

func (h HandlerSet) RegisterSession(c *gin.Context) {
	var req registerSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.sessions.RegisterSession(c.Request.Context(), service.RegisterInput{
		UserID:      *req.UserID,
		VenueID:     *req.VenueID,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.Existing {
		c.JSON(http.StatusOK, gin.H{
			"message": "session already registered",
			"session": gin.H{
				"id":            result.ID,
				"user_id":       result.UserID,
				"venue_id":      result.VenueID,
				"punch_in_time": result.PunchInTime,
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            result.ID,
		"user_id":       result.UserID,
		"venue_id":      result.VenueID,
		"punch_in_time": result.PunchInTime,
		"is_active":     result.IsActive,
	})
}

type closeSessionRequest struct {
	ID *int64 `form:"id" binding:"required"`
}

func (h HandlerSet) CloseSession(c *gin.Context) {
	var req closeSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	closed, err := h.sessions.CloseSession(c.Request.Context(), *req.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             closed.ID,
		"punch_out_time": closed.PunchOutTime,
		"duration":       closed.Duration,
		"message":        "session closed",
	})
}
