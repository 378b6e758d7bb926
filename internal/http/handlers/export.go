package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type exportCSVRequest struct {
	CollegeID int64    `json:"collegeId"`
	Fields    []string `json:"fields"`
}

// GET /api/admin/export/colleges
func ExportColleges(c *gin.Context) {
	list, err := adminService(c).ListColleges(c.Request.Context(), true)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"colleges": list})
}

// POST /api/admin/export/csv
func ExportCSV(c *gin.Context) {
	var req exportCSVRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.CollegeID <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "collegeId is required", gin.H{"field": "collegeId"})
		return
	}
	body, filename, err := exportService(c).StudentsCSV(c.Request.Context(), req.CollegeID, req.Fields)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendDownload(c, "text/csv; charset=utf-8", "attachment", filename, body)
}
