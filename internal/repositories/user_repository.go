package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "collegetour/internal/db"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
)

const userColumns = `id, full_name, email, mobile_number, gender, spu_id, age, roll_number, password_hash, role,
	college_id, department, division, payment_status, is_active,
	selected_package_id, package_selected_at, extra_places_selected_at,
	selected_bus_id, seat_number, bus_selected_at, created_at, updated_at`

// UserRepository persists accounts and their reservation columns.
type UserRepository struct {
	DB intdb.DBTX
}

// userRow is a scanned users row before extra places are attached.
type userRow struct {
	user   models.User
	record models.ReservationRecord
}

func scanUser(row interface{ Scan(...any) error }) (userRow, error) {
	var (
		out                     userRow
		mobile, spu, roll       sql.NullString
		college, pkg, bus, seat sql.NullInt64
		pkgAt, extrasAt, busAt  sql.NullTime
		role, payment           string
	)
	u := &out.user
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &mobile, &u.Gender, &spu, &u.Age, &roll, &u.PasswordHash, &role,
		&college, &u.Department, &u.Division, &payment, &u.IsActive,
		&pkg, &pkgAt, &extrasAt,
		&bus, &seat, &busAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return userRow{}, err
	}
	u.MobileNumber = mobile.String
	u.SpuID = spu.String
	u.RollNumber = roll.String
	u.Role = domain.Role(role)
	u.PaymentStatus = domain.PaymentStatus(payment)
	u.CollegeID = college.Int64

	out.record = models.ReservationRecord{
		PackageID:             nullInt64(pkg),
		PackageSelectedAt:     nullTime(pkgAt),
		ExtraPlacesSelectedAt: nullTime(extrasAt),
		BusID:                 nullInt64(bus),
		SeatNumber:            nullInt(seat),
		BusSelectedAt:         nullTime(busAt),
	}
	return out, nil
}

// hydrate attaches extra place ids and restores reservation state.
func (r UserRepository) hydrate(ctx context.Context, rows []userRow) ([]models.User, error) {
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		if row.record.ExtraPlacesSelectedAt != nil {
			ids, err := r.ExtraPlaceIDs(ctx, row.user.ID)
			if err != nil {
				return nil, err
			}
			row.record.ExtraPlaceIDs = ids
		}
		u := row.user
		u.RestoreReservation(row.record)
		out = append(out, u)
	}
	return out, nil
}

func (r UserRepository) query(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	scanned := []userRow{}
	for rows.Next() {
		row, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		scanned = append(scanned, row)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return r.hydrate(ctx, scanned)
}

func (r UserRepository) getOne(ctx context.Context, query string, args ...any) (models.User, error) {
	row, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	users, err := r.hydrate(ctx, []userRow{row})
	if err != nil {
		return models.User{}, err
	}
	return users[0], nil
}

// GetByID loads a user; forUpdate locks the row for a reservation transition.
func (r UserRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return r.getOne(ctx, query, id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
}

// ListStudents returns students, optionally limited to one college, ordered
// by department then name.
func (r UserRepository) ListStudents(ctx context.Context, collegeID int64) ([]models.User, error) {
	if collegeID > 0 {
		return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role='student' AND college_id=? ORDER BY department ASC, full_name ASC`, collegeID)
	}
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role='student' ORDER BY created_at DESC, id DESC`)
}

func (r UserRepository) Recent(ctx context.Context, limit int) ([]models.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role='student' ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// LockBusHolders locks and returns the ids of users seated on busID.
func (r UserRepository) LockBusHolders(ctx context.Context, busID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM users WHERE selected_bus_id=? ORDER BY id ASC FOR UPDATE`, busID)
	if err != nil {
		return nil, fmt.Errorf("lock bus holders: %w", err)
	}
	ids, err := collectInt64(rows)
	if err != nil {
		return nil, fmt.Errorf("scan bus holders: %w", err)
	}
	return ids, nil
}

// TakenSeats lists seat numbers currently held on busID.
func (r UserRepository) TakenSeats(ctx context.Context, busID int64) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT seat_number FROM users WHERE selected_bus_id=? AND seat_number IS NOT NULL`, busID)
	if err != nil {
		return nil, fmt.Errorf("taken seats: %w", err)
	}
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r UserRepository) ExtraPlaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT place_id FROM user_extra_places WHERE user_id=? ORDER BY place_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("user extra places: %w", err)
	}
	ids, err := collectInt64(rows)
	if err != nil {
		return nil, fmt.Errorf("scan user extra places: %w", err)
	}
	return ids, nil
}

func (r UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	var college any
	if u.CollegeID > 0 {
		college = u.CollegeID
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (full_name, email, mobile_number, gender, spu_id, age, roll_number, password_hash, role,
			college_id, department, division, payment_status, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.FullName, u.Email, intdb.NullIfEmpty(u.MobileNumber), u.Gender, intdb.NullIfEmpty(u.SpuID), u.Age,
		intdb.NullIfEmpty(u.RollNumber), u.PasswordHash, string(u.Role),
		college, u.Department, u.Division, string(u.PaymentStatus), u.IsActive)
	if err != nil {
		return 0, intdb.MapWriteError(err, "user", "email, mobile number, SPU ID or roll number already registered")
	}
	return res.LastInsertId()
}

func (r UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, "user")
}

func (r UserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role=? WHERE id=?`, string(role), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(res, "user")
}

func (r UserRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET payment_status=? WHERE id=?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return requireAffected(res, "user")
}

// SetPackage records the package once. It reports false when a package was
// already stored for the user.
func (r UserRepository) SetPackage(ctx context.Context, userID, packageID int64, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET selected_package_id=?, package_selected_at=?
		WHERE id=? AND selected_package_id IS NULL
	`, packageID, at, userID)
	if err != nil {
		return false, fmt.Errorf("set package: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set package rows affected: %w", err)
	}
	return n == 1, nil
}

// ReplaceExtraPlaces swaps the whole extra place set of a user.
func (r UserRepository) ReplaceExtraPlaces(ctx context.Context, userID int64, placeIDs []int64, at time.Time) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM user_extra_places WHERE user_id=?`, userID); err != nil {
		return fmt.Errorf("clear extra places: %w", err)
	}
	for _, placeID := range placeIDs {
		if _, err := r.DB.ExecContext(ctx, `INSERT INTO user_extra_places (user_id, place_id) VALUES (?, ?)`, userID, placeID); err != nil {
			return fmt.Errorf("insert extra place: %w", err)
		}
	}
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET extra_places_selected_at=? WHERE id=?`, at, userID); err != nil {
		return fmt.Errorf("stamp extra places: %w", err)
	}
	return nil
}

// AssignSeat stores a seat for a user without one. It reports false when
// the user already holds a seat.
func (r UserRepository) AssignSeat(ctx context.Context, userID, busID int64, seat int, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET selected_bus_id=?, seat_number=?, bus_selected_at=?
		WHERE id=? AND selected_bus_id IS NULL
	`, busID, seat, at, userID)
	if err != nil {
		return false, intdb.MapWriteError(err, "bus", "seat already taken")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign seat rows affected: %w", err)
	}
	return n == 1, nil
}

func (r UserRepository) ClearSeat(ctx context.Context, userID int64) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET selected_bus_id=NULL, seat_number=NULL, bus_selected_at=NULL WHERE id=?`, userID); err != nil {
		return fmt.Errorf("clear seat: %w", err)
	}
	return nil
}

// ClearSeatsForBus detaches every user seated on busID and returns how many.
func (r UserRepository) ClearSeatsForBus(ctx context.Context, busID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET selected_bus_id=NULL, seat_number=NULL, bus_selected_at=NULL WHERE selected_bus_id=?`, busID)
	if err != nil {
		return 0, fmt.Errorf("clear bus seats: %w", err)
	}
	return res.RowsAffected()
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM user_extra_places WHERE user_id=?`, id); err != nil {
		return fmt.Errorf("clear extra places: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "user")
}

func (r UserRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM users WHERE role='student'`)
}

// Stats counts students per registration stage.
func (r UserRepository) Stats(ctx context.Context) (models.UserStats, error) {
	var s models.UserStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(selected_package_id IS NOT NULL), 0),
			COALESCE(SUM(selected_bus_id IS NOT NULL), 0),
			COALESCE(SUM(selected_package_id IS NOT NULL AND selected_bus_id IS NOT NULL), 0)
		FROM users WHERE role='student'
	`).Scan(&s.Total, &s.WithPackage, &s.WithBus, &s.Complete)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	s.Finalize()
	return s, nil
}
