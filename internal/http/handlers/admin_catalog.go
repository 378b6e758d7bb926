package handlers

import (
	"net/http"

	"collegetour/internal/services"

	"github.com/gin-gonic/gin"
)

// ---- colleges ----

func ListColleges(c *gin.Context) {
	list, err := adminService(c).ListColleges(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"colleges": list})
}

func CreateCollege(c *gin.Context) {
	var in services.CollegeInput
	if !BindJSONOrError(c, &in) {
		return
	}
	college, err := adminService(c).CreateCollege(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "college created", "college": college})
}

func UpdateCollege(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.CollegeInput
	if !BindJSONOrError(c, &in) {
		return
	}
	college, err := adminService(c).UpdateCollege(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "college updated", "college": college})
}

func DeleteCollege(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := adminService(c).DeleteCollege(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "college deleted"})
}

// ---- places ----

func ListPlaces(c *gin.Context) {
	list, err := adminService(c).ListPlaces(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": list})
}

func CreatePlace(c *gin.Context) {
	var in services.PlaceInput
	if !BindJSONOrError(c, &in) {
		return
	}
	place, err := adminService(c).CreatePlace(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "place created", "place": place})
}

func UpdatePlace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.PlaceInput
	if !BindJSONOrError(c, &in) {
		return
	}
	place, err := adminService(c).UpdatePlace(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "place updated", "place": place})
}

func DeletePlace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := adminService(c).DeletePlace(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "place deleted"})
}

// ---- packages ----

func ListPackages(c *gin.Context) {
	collegeID, ok := queryCollegeID(c)
	if !ok {
		return
	}
	list, err := adminService(c).ListPackages(c.Request.Context(), collegeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

func GetPackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := adminService(c).GetPackage(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": p})
}

func CreatePackage(c *gin.Context) {
	var in services.PackageInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := adminService(c).CreatePackage(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "package created", "package": p})
}

func UpdatePackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.PackageInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := adminService(c).UpdatePackage(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "package updated", "package": p})
}

func DeletePackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := adminService(c).DeletePackage(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "package deleted"})
}
