package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studentengagement/api/internal/models"
	"studentengagement/api/internal/service"
)

type loginRequest struct {
	ID       *int64 `form:"id" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), *req.ID, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	body := gin.H{
		"id":      result.ID,
		"status":  http.StatusOK,
		"message": "authentication successful",
		"user":    result.User,
	}
	if result.Token != "" {
		body["token"] = result.Token
	}
	c.JSON(http.StatusOK, body)
}

type signupRequest struct {
	ID        *int64 `form:"id" binding:"required"`
	Password  string `form:"password" binding:"required"`
	Email     string `form:"email" binding:"required"`
	Phone     string `form:"phone" binding:"required"`
	FirstName string `form:"firstname" binding:"required"`
	MidName   string `form:"midname"`
	LastName  string `form:"lastname" binding:"required"`
	Role      string `form:"role" binding:"required"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		ID:        *req.ID,
		Password:  req.Password,
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		MidName:   req.MidName,
		LastName:  req.LastName,
		Role:      models.UserRole(req.Role),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      result.ID,
		"status":  http.StatusCreated,
		"message": "user created successfully",
		"time":    result.CreatedAt,
	})
}
