package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/middleware"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/utils"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	DB      *gorm.DB
	limiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{DB: db, limiter: limiter}
}

// Register creates a new citizen account
func (h *AuthHandler) Register(c *gin.Context) {
	var request struct {
		FullName string `json:"full_name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	hash, err := utils.HashPassword(request.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user := models.User{
		FullName:     request.FullName,
		Email:        request.Email,
		PasswordHash: hash,
		Role:         models.RoleCitizen,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user": gin.H{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

// Login authenticates a user and returns a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Keyed by email so rotating source IPs cannot bypass the throttle
	if !h.limiter.AllowCredential(request.Email) {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many login attempts, please try again later"})
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", request.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	if !utils.CheckPasswordHash(request.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate tokens"})
		return
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_login_at", &now)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tokens":  tokens,
		"user": gin.H{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}
