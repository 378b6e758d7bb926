package services

import (
	"context"
	"regexp"
	"testing"

	"collegetour/internal/domain"
	"collegetour/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteBusClearsEverySeat(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE selected_bus_id=? ORDER BY id ASC FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)).AddRow(int64(6)).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM buses WHERE id=? FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(busRows(4, 2, 40, 3, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET selected_bus_id=NULL, seat_number=NULL, bus_selected_at=NULL WHERE selected_bus_id=?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM buses WHERE id=?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cleared, err := svc.DeleteBus(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBusMissing(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE selected_bus_id=?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM buses WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(busCols))
	mock.ExpectRollback()

	_, err := svc.DeleteBus(context.Background(), 4)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserReleasesSeatFirst(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	expectLockUser(mock, userFixture{id: 5, collegeID: 2, packageID: int64(11), busID: int64(4), seat: int64(7)})
	mock.ExpectQuery(regexp.QuoteMeta("FROM buses WHERE id=? FOR UPDATE")).
		WillReturnRows(busRows(4, 2, 40, 10, true))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(booked_seats - 1, 0)")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET selected_bus_id=NULL, seat_number=NULL, bus_selected_at=NULL WHERE id=?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_extra_places WHERE user_id=?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteUser(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRefusesAdmin(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	expectLockUser(mock, userFixture{id: 1, role: "admin"})
	mock.ExpectRollback()

	err := svc.DeleteUser(context.Background(), 1)
	assert.Equal(t, domain.ReasonAdminNotDeletable, domain.Reason(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func validPackageInput() PackageInput {
	return PackageInput{
		Name:      "Heritage Trail",
		CollegeID: 2,
		PlaceIDs:  []int64{20},
		Duration:  3,
		Price:     utils.NewAmount("1500"),
		StartDate: "2026-02-01",
	}
}

func TestCreatePackageRejectsSixthMainPackage(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db, MaxMainPackages: 5}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM colleges WHERE id=? FOR UPDATE")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(collegeCols).AddRow(int64(2), "SPU", `["CE","IT"]`, "Ravi", "9876543210", true, fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("FROM places WHERE id IN (?)")).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows(placeCols).AddRow(int64(20), "Rani ki Vav", "Patan", "", "0", true, fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM packages WHERE college_id=? AND is_active=1 AND is_optional=0")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(5))
	mock.ExpectRollback()

	_, err := svc.CreatePackage(context.Background(), validPackageInput())
	require.True(t, domain.IsCapacity(err))
	assert.Equal(t, domain.ReasonPackageLimitExceeded, domain.Reason(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePackageOptionalSkipsCap(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db, MaxMainPackages: 5}
	in := validPackageInput()
	in.IsOptional = true

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM colleges WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(collegeCols).AddRow(int64(2), "SPU", `["CE"]`, "Ravi", "9876543210", true, fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("FROM places WHERE id IN (?)")).
		WillReturnRows(sqlmock.NewRows(placeCols).AddRow(int64(20), "Rani ki Vav", "Patan", "", "0", true, fixedNow, fixedNow))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO packages")).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM package_places WHERE package_id=?")).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO package_places")).
		WithArgs(int64(31), int64(20), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM packages WHERE id=?")).
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(int64(31), int64(2), "Heritage Trail", 3, "1500.00", "", fixedNow, 50, true, true, fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("FROM package_places WHERE package_id=?")).
		WillReturnRows(sqlmock.NewRows([]string{"place_id"}).AddRow(int64(20)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM places WHERE id IN (?)")).
		WillReturnRows(sqlmock.NewRows(placeCols).AddRow(int64(20), "Rani ki Vav", "Patan", "", "0", true, fixedNow, fixedNow))

	p, err := svc.CreatePackage(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(31), p.ID)
	require.Len(t, p.Places, 1)
	assert.Equal(t, "Rani ki Vav", p.Places[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCollegeInUse(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM colleges WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(collegeCols).AddRow(int64(2), "SPU", `["CE"]`, "Ravi", "9876543210", true, fixedNow, fixedNow))
	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"buses", "packages", "users"}).AddRow(1, 0, 4))
	mock.ExpectRollback()

	err := svc.DeleteCollege(context.Background(), 2)
	assert.Equal(t, domain.ReasonInUse, domain.Reason(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBusCapacityBelowBooked(t *testing.T) {
	db, mock := newServiceMock(t)
	svc := AdminService{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM buses WHERE id=? FOR UPDATE")).
		WillReturnRows(busRows(4, 2, 40, 12, true))
	mock.ExpectRollback()

	_, err := svc.UpdateBus(context.Background(), 4, BusInput{BusName: "Bus A", BusNumber: "gj01 ab 1234", CollegeID: 2, Capacity: 10})
	assert.Equal(t, domain.ReasonCapacityBelowBooked, domain.Reason(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleValidates(t *testing.T) {
	err := AdminService{}.UpdateRole(context.Background(), 1, 5, domain.Role("owner"))
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateRoleRefusesOwnAccount(t *testing.T) {
	db, mock := newServiceMock(t)
	err := AdminService{DB: db}.UpdateRole(context.Background(), 1, 1, domain.RoleStudent)
	require.True(t, domain.IsConflict(err))
	assert.Equal(t, domain.ReasonSelfRoleChange, domain.Reason(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordTooShort(t *testing.T) {
	err := AdminService{}.ResetPassword(context.Background(), 5, "abc")
	assert.True(t, domain.IsValidation(err))
}
