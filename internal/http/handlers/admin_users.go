package handlers

import (
	"net/http"
	"strconv"

	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/http/middleware"
	"collegetour/internal/services"

	"github.com/gin-gonic/gin"
)

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// queryCollegeID reads an optional ?collegeId= filter.
func queryCollegeID(c *gin.Context) (int64, bool) {
	raw := c.Query("collegeId")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		RespondDomainError(c, domain.ValidationError{Field: "collegeId", Msg: "must be a number"})
		return 0, false
	}
	return id, true
}

// GET /api/admin/dashboard
func AdminDashboard(c *gin.Context) {
	d, err := adminService(c).Dashboard(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/admin/users
func ListUsers(c *gin.Context) {
	users, err := adminService(c).ListUsers(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// POST /api/admin/users
func CreateUser(c *gin.Context) {
	var in services.AdminUserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := adminService(c).CreateUser(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created", "user": u.ToPublic()})
}

// PUT /api/admin/users/:id/reset-password
func ResetPassword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req resetPasswordRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := adminService(c).ResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset"})
}

// PUT /api/admin/users/:id/role
func UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := adminService(c).UpdateRole(c.Request.Context(), middleware.UserID(c), id, domain.Role(req.Role)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// PUT /api/admin/users/:id/payment
func UpdatePaymentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := adminService(c).UpdatePaymentStatus(c.Request.Context(), id, domain.PaymentStatus(req.PaymentStatus)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment status updated"})
}

// POST /api/admin/users/:id/release-seat
func ReleaseUserSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	released, err := adminService(c).ReleaseSeat(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

// DELETE /api/admin/users/:id
func DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := adminService(c).DeleteUser(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
