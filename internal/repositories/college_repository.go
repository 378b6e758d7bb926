package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	intdb "collegetour/internal/db"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
)

const collegeColumns = `id, name, departments, ambassador_name, ambassador_contact, is_active, created_at, updated_at`

// CollegeRepository stores colleges; departments are kept as a JSON array.
type CollegeRepository struct {
	DB intdb.DBTX
}

func scanCollege(row interface{ Scan(...any) error }) (models.College, error) {
	var (
		c    models.College
		deps string
	)
	if err := row.Scan(&c.ID, &c.Name, &deps, &c.AmbassadorName, &c.AmbassadorContact, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.College{}, err
	}
	c.Departments = decodeDepartments(deps)
	return c, nil
}

// decodeDepartments accepts a JSON array and falls back to a comma list for
// rows written by hand.
func decodeDepartments(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out
	}
	return models.SplitDepartments(raw)
}

func encodeDepartments(deps []string) string {
	if deps == nil {
		deps = []string{}
	}
	b, _ := json.Marshal(deps)
	return string(b)
}

func (r CollegeRepository) List(ctx context.Context, activeOnly bool) ([]models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges`
	if activeOnly {
		query += ` WHERE is_active=1`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer rows.Close()

	out := []models.College{}
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r CollegeRepository) Recent(ctx context.Context, limit int) ([]models.College, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+collegeColumns+` FROM colleges ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent colleges: %w", err)
	}
	defer rows.Close()

	out := []models.College{}
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r CollegeRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE id=?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, err := scanCollege(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.College{}, domain.NotFoundError{Resource: "college", Err: err}
	}
	if err != nil {
		return models.College{}, fmt.Errorf("get college: %w", err)
	}
	return c, nil
}

func (r CollegeRepository) Create(ctx context.Context, c models.College) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO colleges (name, departments, ambassador_name, ambassador_contact, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, c.Name, encodeDepartments(c.Departments), c.AmbassadorName, c.AmbassadorContact, c.IsActive)
	if err != nil {
		return 0, intdb.MapWriteError(err, "college", "a college with this name already exists")
	}
	return res.LastInsertId()
}

func (r CollegeRepository) Update(ctx context.Context, c models.College) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE colleges
		SET name=?, departments=?, ambassador_name=?, ambassador_contact=?, is_active=?
		WHERE id=?
	`, c.Name, encodeDepartments(c.Departments), c.AmbassadorName, c.AmbassadorContact, c.IsActive, c.ID)
	if err != nil {
		return intdb.MapWriteError(err, "college", "a college with this name already exists")
	}
	return requireAffected(res, "college")
}

func (r CollegeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM colleges WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete college: %w", err)
	}
	return requireAffected(res, "college")
}

// CollegeRefs counts rows still pointing at a college.
type CollegeRefs struct {
	Buses    int
	Packages int
	Users    int
}

func (c CollegeRefs) Any() bool {
	return c.Buses+c.Packages+c.Users > 0
}

func (r CollegeRepository) References(ctx context.Context, id int64) (CollegeRefs, error) {
	var refs CollegeRefs
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM buses WHERE college_id=?),
			(SELECT COUNT(*) FROM packages WHERE college_id=?),
			(SELECT COUNT(*) FROM users WHERE college_id=?)
	`, id, id, id).Scan(&refs.Buses, &refs.Packages, &refs.Users)
	if err != nil {
		return CollegeRefs{}, fmt.Errorf("college references: %w", err)
	}
	return refs, nil
}

func (r CollegeRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM colleges`)
}
