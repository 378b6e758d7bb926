package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "collegetour/internal/db"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
)

const busColumns = `id, college_id, bus_name, bus_number, capacity, booked_seats, is_active, created_at, updated_at`

// BusRepository owns booked_seats. Every change to the counter goes through
// IncrementBooked or DecrementBooked so the bound checks stay in SQL.
type BusRepository struct {
	DB intdb.DBTX
}

func scanBus(row interface{ Scan(...any) error }) (models.Bus, error) {
	var b models.Bus
	err := row.Scan(&b.ID, &b.CollegeID, &b.BusName, &b.BusNumber, &b.Capacity, &b.BookedSeats, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r BusRepository) query(ctx context.Context, query string, args ...any) ([]models.Bus, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	defer rows.Close()

	out := []models.Bus{}
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bus: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns every bus, or only the buses of collegeID when it is set.
func (r BusRepository) List(ctx context.Context, collegeID int64) ([]models.Bus, error) {
	if collegeID > 0 {
		return r.query(ctx, `SELECT `+busColumns+` FROM buses WHERE college_id=? ORDER BY bus_name ASC, id ASC`, collegeID)
	}
	return r.query(ctx, `SELECT `+busColumns+` FROM buses ORDER BY college_id ASC, bus_name ASC, id ASC`)
}

// ListActiveByCollege is the seat picker list.
func (r BusRepository) ListActiveByCollege(ctx context.Context, collegeID int64) ([]models.Bus, error) {
	return r.query(ctx, `SELECT `+busColumns+` FROM buses WHERE college_id=? AND is_active=1 ORDER BY bus_name ASC, id ASC`, collegeID)
}

func (r BusRepository) Recent(ctx context.Context, limit int) ([]models.Bus, error) {
	return r.query(ctx, `SELECT `+busColumns+` FROM buses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// GetByID loads a bus; forUpdate takes a row lock inside a transaction.
func (r BusRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (models.Bus, error) {
	query := `SELECT ` + busColumns + ` FROM buses WHERE id=?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBus(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bus{}, domain.NotFoundError{Resource: "bus", Reason: domain.ReasonBusNotFound, Err: err}
	}
	if err != nil {
		return models.Bus{}, fmt.Errorf("get bus: %w", err)
	}
	return b, nil
}

func (r BusRepository) Create(ctx context.Context, b models.Bus) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO buses (college_id, bus_name, bus_number, capacity, booked_seats, is_active)
		VALUES (?, ?, ?, ?, 0, ?)
	`, b.CollegeID, b.BusName, b.BusNumber, b.Capacity, b.IsActive)
	if err != nil {
		return 0, intdb.MapWriteError(err, "bus", "bus number already exists")
	}
	return res.LastInsertId()
}

// Update changes the descriptive fields and capacity. booked_seats is never
// written here; the capacity guard refuses to drop below it.
func (r BusRepository) Update(ctx context.Context, b models.Bus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE buses SET college_id=?, bus_name=?, bus_number=?, capacity=?, is_active=?
		WHERE id=? AND booked_seats <= ?
	`, b.CollegeID, b.BusName, b.BusNumber, b.Capacity, b.IsActive, b.ID, b.Capacity)
	if err != nil {
		return intdb.MapWriteError(err, "bus", "bus number already exists")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bus rows affected: %w", err)
	}
	if n == 0 {
		return domain.ConflictError{Resource: "bus", Reason: domain.ReasonCapacityBelowBooked, Msg: "capacity cannot be less than booked seats"}
	}
	return nil
}

func (r BusRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM buses WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete bus: %w", err)
	}
	return requireAffected(res, "bus")
}

// IncrementBooked takes one seat. It reports false when the bus is inactive,
// missing or already full.
func (r BusRepository) IncrementBooked(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE buses SET booked_seats = booked_seats + 1
		WHERE id=? AND is_active=1 AND booked_seats < capacity
	`, id)
	if err != nil {
		return false, fmt.Errorf("book seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("book seat rows affected: %w", err)
	}
	return n == 1, nil
}

// DecrementBooked gives one seat back, floored at zero.
func (r BusRepository) DecrementBooked(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE buses SET booked_seats = GREATEST(booked_seats - 1, 0) WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

func (r BusRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM buses`)
}
