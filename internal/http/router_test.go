package api

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	intconfig "collegetour/internal/config"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/http/handlers"
	"collegetour/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("router-test-secret")

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handlers.Configure(handlers.Deps{DB: db, JWTSecret: testSecret, JWTTTL: time.Hour, MaxMainPackages: 5})
	r := NewRouter(intconfig.Env{CORSAllowedOrigins: []string{"http://localhost:5173"}, MetricsEnabled: true})
	handlers.SetRouter(r)
	return r, mock
}

func tokenFor(t *testing.T, id int64, role domain.Role) string {
	t.Helper()
	token, err := services.AuthService{Secret: testSecret}.IssueToken(models.User{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

var userCols = []string{"id", "full_name", "email", "mobile_number", "gender", "spu_id", "age", "roll_number", "password_hash", "role",
	"college_id", "department", "division", "payment_status", "is_active",
	"selected_package_id", "package_selected_at", "extra_places_selected_at",
	"selected_bus_id", "seat_number", "bus_selected_at", "created_at", "updated_at"}

func userRow(id int64, role domain.Role, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, "Asha Patel", "asha@example.com", "9876543210", "Female", "SPU01", int64(20), "R1", "hash", string(role),
		int64(2), "CE", "A", "pending", active,
		nil, nil, nil, nil, nil, nil, now, now,
	)
}

// expectSession queues the account lookup Auth performs on every request.
func expectSession(mock sqlmock.Sqlmock, id int64, role domain.Role) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(id).
		WillReturnRows(userRow(id, role, true))
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/api/routes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/user/select-bus")

	w = do(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoleGuards(t *testing.T) {
	r, mock := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/user/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expectSession(mock, 5, domain.RoleStudent)
	w = do(r, http.MethodGet, "/api/admin/dashboard", tokenFor(t, 5, domain.RoleStudent), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	expectSession(mock, 1, domain.RoleAdmin)
	w = do(r, http.MethodPost, "/api/user/select-bus", tokenFor(t, 1, domain.RoleAdmin), `{"busId":4}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleGuardUsesCurrentAccountRole(t *testing.T) {
	r, mock := newTestRouter(t)
	demoted := tokenFor(t, 9, domain.RoleAdmin)

	expectSession(mock, 9, domain.RoleStudent)
	w := do(r, http.MethodDelete, "/api/admin/buses/4", demoted, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRejectedForRemovedOrInactiveAccount(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userCols))
	w := do(r, http.MethodGet, "/api/admin/dashboard", tokenFor(t, 9, domain.RoleAdmin), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(int64(5)).
		WillReturnRows(userRow(5, domain.RoleStudent, false))
	w = do(r, http.MethodGet, "/api/user/dashboard", tokenFor(t, 5, domain.RoleStudent), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"account_inactive"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectBusWithoutPackageIsConflict(t *testing.T) {
	r, mock := newTestRouter(t)

	expectSession(mock, 5, domain.RoleStudent)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(userRow(5, domain.RoleStudent, true))
	mock.ExpectRollback()

	w := do(r, http.MethodPost, "/api/user/select-bus", tokenFor(t, 5, domain.RoleStudent), `{"busId":4}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"package_required"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminInputErrors(t *testing.T) {
	r, mock := newTestRouter(t)
	admin := tokenFor(t, 1, domain.RoleAdmin)

	expectSession(mock, 1, domain.RoleAdmin)
	w := do(r, http.MethodDelete, "/api/admin/buses/abc", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	expectSession(mock, 1, domain.RoleAdmin)
	w = do(r, http.MethodPost, "/api/admin/export/csv", admin, `{"fields":["student"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	expectSession(mock, 1, domain.RoleAdmin)
	w = do(r, http.MethodPost, "/api/admin/buses", admin, `{"busName":"Bus A","busNumber":"GJ01","collegeId":2,"capacity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"capacity"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCheckReportsTables(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	for _, table := range []string{"colleges", "places", "packages", "package_places", "buses", "users", "user_extra_places"} {
		rows := sqlmock.NewRows([]string{"table_name"})
		if table != "user_extra_places" {
			rows.AddRow(table)
		}
		mock.ExpectQuery(`information_schema\.tables`).WithArgs(table).WillReturnRows(rows)
	}

	w := do(r, http.MethodGet, "/api/db-check", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users_in_db":3`)
	assert.Contains(t, w.Body.String(), `"buses":true`)
	assert.Contains(t, w.Body.String(), `"user_extra_places":false`)
	assert.Contains(t, w.Body.String(), "schema incomplete")
	assert.Contains(t, w.Body.String(), `"cache":"disabled"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "token=;")
}
