package handlers

import (
	"net/http"

	"collegetour/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/buses?collegeId=
func ListBuses(c *gin.Context) {
	collegeID, ok := queryCollegeID(c)
	if !ok {
		return
	}
	list, err := adminService(c).ListBuses(c.Request.Context(), collegeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": list})
}

// POST /api/admin/buses
func CreateBus(c *gin.Context) {
	var in services.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := adminService(c).CreateBus(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "bus created", "bus": b})
}

// PUT /api/admin/buses/:id
func UpdateBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := adminService(c).UpdateBus(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bus updated", "bus": b})
}

// DELETE /api/admin/buses/:id detaches every passenger before removing the bus.
func DeleteBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cleared, err := adminService(c).DeleteBus(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bus deleted", "clearedUsers": cleared})
}
