package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"collegetour/internal/domain"
	"collegetour/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ctx    = context.Background()
	stamp  = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	usrCol = []string{"id", "full_name", "email", "mobile_number", "gender", "spu_id", "age", "roll_number", "password_hash", "role",
		"college_id", "department", "division", "payment_status", "is_active",
		"selected_package_id", "package_selected_at", "extra_places_selected_at",
		"selected_bus_id", "seat_number", "bus_selected_at", "created_at", "updated_at"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func busFixture() models.Bus {
	return models.Bus{ID: 3, CollegeID: 2, BusName: "Bus A", BusNumber: "GJ01AB1234", Capacity: 10, BookedSeats: 12, IsActive: true}
}

func TestBusIncrementBookedReportsFull(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE buses SET booked_seats = booked_seats + 1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := BusRepository{DB: db}.IncrementBooked(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusDecrementFloorsAtZero(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(booked_seats - 1, 0)")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, BusRepository{DB: db}.DecrementBooked(ctx, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusUpdateRefusesCapacityBelowBooked(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE buses SET college_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := BusRepository{DB: db}.Update(ctx, busFixture())
	assert.Equal(t, domain.ReasonCapacityBelowBooked, domain.Reason(err))
}

func TestBusGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM buses WHERE id=? FOR UPDATE")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := BusRepository{DB: db}.GetByID(ctx, 9, true)
	require.True(t, domain.IsNotFound(err))
	assert.Equal(t, domain.ReasonBusNotFound, domain.Reason(err))
}

func TestUserGetByIDRestoresReservation(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(usrCol).AddRow(
			int64(5), "Asha Patel", "asha@example.com", "9876543210", "Female", "SPU01", int64(20), "R1", "hash", "student",
			int64(2), "CE", "A", "pending", true,
			int64(11), stamp, stamp,
			int64(4), int64(7), stamp, stamp, stamp,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_extra_places WHERE user_id=?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"place_id"}).AddRow(int64(30)).AddRow(int64(31)))

	u, err := UserRepository{DB: db}.GetByID(ctx, 5, false)
	require.NoError(t, err)

	pkg, ok := u.Package()
	require.True(t, ok)
	assert.Equal(t, int64(11), pkg.PackageID())
	extras, ok := u.ExtraPlaces()
	require.True(t, ok)
	assert.Equal(t, []int64{30, 31}, extras.PlaceIDs())
	seat, ok := u.Seat()
	require.True(t, ok)
	assert.Equal(t, int64(4), seat.BusID())
	assert.Equal(t, 7, seat.SeatNumber())
	assert.Equal(t, domain.RoleStudent, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDWithoutSelections(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WillReturnRows(sqlmock.NewRows(usrCol).AddRow(
			int64(6), "Admin", "admin@example.com", nil, "", nil, int64(0), nil, "hash", "admin",
			nil, "", "", "pending", true,
			nil, nil, nil,
			nil, nil, nil, stamp, stamp,
		))

	u, err := UserRepository{DB: db}.GetByID(ctx, 6, false)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "no_package", u.Stage().String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetPackageGuarded(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=? AND selected_package_id IS NULL")).
		WithArgs(int64(11), stamp, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := UserRepository{DB: db}.SetPackage(ctx, 5, 11, stamp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserReplaceExtraPlaces(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM user_extra_places").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO user_extra_places").WithArgs(int64(5), int64(30)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_extra_places").WithArgs(int64(5), int64(31)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET extra_places_selected_at").WithArgs(stamp, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, UserRepository{DB: db}.ReplaceExtraPlaces(ctx, 5, []int64{30, 31}, stamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStats(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM users WHERE role='student'").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d"}).AddRow(int64(8), int64(6), int64(4), int64(4)))

	s, err := UserRepository{DB: db}.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Incomplete)
	assert.Equal(t, 50.0, s.CompletionRate)
	assert.Equal(t, 75.0, s.PackageRate)
}

func TestCollegeDepartmentsRoundTrip(t *testing.T) {
	assert.Equal(t, `["CE","IT"]`, encodeDepartments([]string{"CE", "IT"}))
	assert.Equal(t, `[]`, encodeDepartments(nil))
	assert.Equal(t, []string{"CE", "IT"}, decodeDepartments(`["CE","IT"]`))
	assert.Equal(t, []string{"CE", "ME"}, decodeDepartments("CE, ME"))
	assert.Equal(t, []string{}, decodeDepartments(""))
}

func TestCollegeReferences(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").WithArgs(int64(2), int64(2), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"b", "p", "u"}).AddRow(int64(1), int64(0), int64(3)))

	refs, err := CollegeRepository{DB: db}.References(ctx, 2)
	require.NoError(t, err)
	assert.True(t, refs.Any())
	assert.Equal(t, 3, refs.Users)
}

func TestPackageListAppliesFilters(t *testing.T) {
	db, mock := newMock(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE college_id=? AND is_active=1 AND is_optional=0 AND start_date>=?")).
		WithArgs(int64(2), "2026-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "college_id", "name", "duration", "price", "description", "start_date",
			"max_participants", "is_optional", "is_active", "created_at", "updated_at"}).
			AddRow(int64(1), int64(2), "Heritage Trail", 3, "1500.00", "", from, 50, false, true, stamp, stamp))
	mock.ExpectQuery("FROM package_places WHERE package_id=?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"place_id"}).AddRow(int64(20)).AddRow(int64(21)))

	got, err := PackageRepository{DB: db}.List(ctx, PackageFilter{CollegeID: 2, ActiveOnly: true, MainOnly: true, StartsFrom: from})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, []int64{20, 21}, got[0].PlaceIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceGetByIDsEmpty(t *testing.T) {
	got, err := PlaceRepository{}.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?,?,?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}
