package handlers

import (
	"net/http"

	"collegetour/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type selectPackageRequest struct {
	PackageID int64 `json:"packageId"`
}

type selectExtraPlacesRequest struct {
	PlaceIDs []int64 `json:"placeIds"`
}

type selectBusRequest struct {
	BusID int64 `json:"busId"`
}

// GET /api/user/dashboard
func StudentDashboard(c *gin.Context) {
	d, err := reservationService(c).Dashboard(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/user/packages
func StudentPackages(c *gin.Context) {
	svc := reservationService(c)
	view, err := svc.View(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	list, err := svc.PackagesForCollege(c.Request.Context(), view.User.CollegeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list, "selected": view.Package})
}

// POST /api/user/select-package
func SelectPackage(c *gin.Context) {
	var req selectPackageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := reservationService(c)
	u, err := svc.SelectPackage(c.Request.Context(), middleware.UserID(c), req.PackageID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "package selected", "user": u.ToPublic()})
}

// GET /api/user/extra-places
func StudentExtraPlaces(c *gin.Context) {
	opts, err := reservationService(c).ExtraPlaceOptions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// POST /api/user/select-extra-places
func SelectExtraPlaces(c *gin.Context) {
	var req selectExtraPlacesRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := reservationService(c).SelectExtraPlaces(c.Request.Context(), middleware.UserID(c), req.PlaceIDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "extra places saved", "user": u.ToPublic()})
}

// GET /api/user/buses
func StudentBuses(c *gin.Context) {
	svc := reservationService(c)
	view, err := svc.View(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	buses, err := svc.BusesForCollege(c.Request.Context(), view.User.CollegeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": buses, "selectedBusId": view.User.SelectedBusID, "seatNumber": view.SeatNumber})
}

// POST /api/user/select-bus
func SelectBus(c *gin.Context) {
	var req selectBusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := reservationService(c).SelectBus(c.Request.Context(), middleware.UserID(c), req.BusID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bus selected", "user": u.ToPublic()})
}

// GET /api/user/receipt
func Receipt(c *gin.Context) {
	view, err := reservationService(c).View(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/user/receipt.pdf
func ReceiptPDF(c *gin.Context) {
	pdf, filename, err := receiptService(c).Generate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendDownload(c, "application/pdf", "attachment", filename, pdf)
}
