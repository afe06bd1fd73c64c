package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studentengagement/api/internal/apperr"
)

var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{apperr.ErrInvalidTimestamp, http.StatusInternalServerError, "invalid_timestamp"},
	{apperr.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
	{apperr.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperr.ErrUpload, http.StatusInternalServerError, "upload_failed"},
	{apperr.ErrPersistence, http.StatusInternalServerError, "persistence_failed"},
}

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal_server_error"
}

func (h HandlerSet) writeError(c *gin.Context, err error) {
	status, code := classify(err)

	body := gin.H{
		"error":   code,
		"message": apperr.MessageOf(err),
	}
	if detail := apperr.DetailOf(err); detail != nil {
		body["detail"] = detail
	}

	if status >= http.StatusInternalServerError {
		body["cause"] = err.Error()
		if h.cfg.Debug.ExposeTraces {
			if trace := apperr.StackOf(err); trace != "" {
				body["trace"] = trace
			}
		}
		h.log.Error().Err(err).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(status, body)
}

func (h HandlerSet) badRequest(c *gin.Context, err error) {
	h.writeError(c, apperr.New(apperr.ErrValidation, "invalid request", apperr.Detail{"reason": err.Error()}))
}

func (h HandlerSet) int64Param(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(c, apperr.New(apperr.ErrValidation, "invalid "+name, apperr.Detail{name: raw}))
		return 0, false
	}
	return id, true
}
