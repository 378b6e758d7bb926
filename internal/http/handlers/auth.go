package handlers

import (
	"net/http"
	"time"

	"collegetour/internal/http/middleware"
	"collegetour/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = services.DefaultTokenTTL
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", current().CookieSecure, true)
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var in services.RegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, token, err := authService(c).Register(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	setTokenCookie(c, token, current().JWTTTL)
	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful",
		"user":    u.ToPublic(),
		"token":   token,
	})
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, token, err := authService(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	setTokenCookie(c, token, current().JWTTTL)
	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user":    u.ToPublic(),
		"token":   token,
	})
}

// POST /api/auth/logout
func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", current().CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GET /api/auth/me
func Me(c *gin.Context) {
	u, err := authService(c).Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.ToPublic()})
}
