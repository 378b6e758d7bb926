package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"collegetour/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondDomainErrorStatusAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.ValidationError{Field: "age", Msg: "too old"}, http.StatusBadRequest, "validation_error"},
		{"not found", domain.NotFoundError{Resource: "bus", Reason: domain.ReasonBusNotFound}, http.StatusNotFound, "bus_not_found"},
		{"plain not found", domain.NotFoundError{Resource: "place"}, http.StatusNotFound, "not_found"},
		{"bus full", domain.CapacityError{Resource: "bus", Reason: domain.ReasonBusFull}, http.StatusConflict, "bus_full"},
		{"already booked", domain.ConflictError{Resource: "bus", Reason: domain.ReasonAlreadyBooked}, http.StatusConflict, "already_booked"},
		{"college mismatch", domain.MismatchError{Reason: domain.ReasonCollegeMismatch}, http.StatusForbidden, "college_mismatch"},
		{"bad login", domain.UnauthorizedError{Reason: domain.ReasonInvalidCredentials}, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("request_id", "rid-1")

			RespondDomainError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
			assert.Equal(t, "rid-1", body["request_id"])
		})
	}
}

func TestRespondDomainErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondDomainError(c, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
