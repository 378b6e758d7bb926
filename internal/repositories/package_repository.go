package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "collegetour/internal/db"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
)

const packageColumns = `id, college_id, name, duration, price, description, start_date, max_participants, is_optional, is_active, created_at, updated_at`

type PackageRepository struct {
	DB intdb.DBTX
}

// PackageFilter narrows List. Zero values mean "no filter".
type PackageFilter struct {
	CollegeID  int64
	ActiveOnly bool
	MainOnly   bool
	StartsFrom time.Time
}

func scanPackage(row interface{ Scan(...any) error }) (models.Package, error) {
	var p models.Package
	err := row.Scan(&p.ID, &p.CollegeID, &p.Name, &p.Duration, &p.Price, &p.Description, &p.StartDate,
		&p.MaxParticipants, &p.IsOptional, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r PackageRepository) List(ctx context.Context, f PackageFilter) ([]models.Package, error) {
	where := []string{}
	args := []any{}
	if f.CollegeID > 0 {
		where = append(where, "college_id=?")
		args = append(args, f.CollegeID)
	}
	if f.ActiveOnly {
		where = append(where, "is_active=1")
	}
	if f.MainOnly {
		where = append(where, "is_optional=0")
	}
	if !f.StartsFrom.IsZero() {
		where = append(where, "start_date>=?")
		args = append(args, f.StartsFrom.Format("2006-01-02"))
	}
	query := `SELECT ` + packageColumns + ` FROM packages`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date ASC, id ASC`
	return r.query(ctx, query, args...)
}

func (r PackageRepository) Recent(ctx context.Context, limit int) ([]models.Package, error) {
	return r.query(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (r PackageRepository) query(ctx context.Context, query string, args ...any) ([]models.Package, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	out := []models.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan package: %w", err)
	}
	// place ids are loaded after the cursor is closed; a tx has one connection
	for i := range out {
		if out[i].PlaceIDs, err = r.PlaceIDs(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetByID loads a package with its place ids in itinerary order.
func (r PackageRepository) GetByID(ctx context.Context, id int64) (models.Package, error) {
	p, err := scanPackage(r.DB.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Package{}, domain.NotFoundError{Resource: "package", Err: err}
	}
	if err != nil {
		return models.Package{}, fmt.Errorf("get package: %w", err)
	}
	if p.PlaceIDs, err = r.PlaceIDs(ctx, id); err != nil {
		return models.Package{}, err
	}
	return p, nil
}

func (r PackageRepository) PlaceIDs(ctx context.Context, packageID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT place_id FROM package_places WHERE package_id=? ORDER BY position ASC, place_id ASC`, packageID)
	if err != nil {
		return nil, fmt.Errorf("package places: %w", err)
	}
	ids, err := collectInt64(rows)
	if err != nil {
		return nil, fmt.Errorf("scan package places: %w", err)
	}
	return ids, nil
}

// CountActiveMain counts active, non-optional packages of a college.
func (r PackageRepository) CountActiveMain(ctx context.Context, collegeID int64) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM packages WHERE college_id=? AND is_active=1 AND is_optional=0`, collegeID)
}

func (r PackageRepository) Create(ctx context.Context, p models.Package) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO packages (college_id, name, duration, price, description, start_date, max_participants, is_optional, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.CollegeID, p.Name, p.Duration, p.Price, p.Description, p.StartDate.Format("2006-01-02"), p.MaxParticipants, p.IsOptional, p.IsActive)
	if err != nil {
		return 0, intdb.MapWriteError(err, "package", "package already exists")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, r.ReplacePlaces(ctx, id, p.PlaceIDs)
}

func (r PackageRepository) Update(ctx context.Context, p models.Package) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE packages
		SET college_id=?, name=?, duration=?, price=?, description=?, start_date=?, max_participants=?, is_optional=?, is_active=?
		WHERE id=?
	`, p.CollegeID, p.Name, p.Duration, p.Price, p.Description, p.StartDate.Format("2006-01-02"), p.MaxParticipants, p.IsOptional, p.IsActive, p.ID)
	if err != nil {
		return intdb.MapWriteError(err, "package", "package already exists")
	}
	if err := requireAffected(res, "package"); err != nil {
		return err
	}
	return r.ReplacePlaces(ctx, p.ID, p.PlaceIDs)
}

// ReplacePlaces rewrites the itinerary of a package keeping the given order.
func (r PackageRepository) ReplacePlaces(ctx context.Context, packageID int64, placeIDs []int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM package_places WHERE package_id=?`, packageID); err != nil {
		return fmt.Errorf("clear package places: %w", err)
	}
	for i, placeID := range placeIDs {
		if _, err := r.DB.ExecContext(ctx, `INSERT INTO package_places (package_id, place_id, position) VALUES (?, ?, ?)`, packageID, placeID, i); err != nil {
			return fmt.Errorf("insert package place: %w", err)
		}
	}
	return nil
}

func (r PackageRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM package_places WHERE package_id=?`, id); err != nil {
		return fmt.Errorf("clear package places: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM packages WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return requireAffected(res, "package")
}

// CountSelections counts users who selected the package.
func (r PackageRepository) CountSelections(ctx context.Context, id int64) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM users WHERE selected_package_id=?`, id)
}

func (r PackageRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM packages`)
}
