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

const placeColumns = `id, name, location, description, price, is_active, created_at, updated_at`

type PlaceRepository struct {
	DB intdb.DBTX
}

func scanPlace(row interface{ Scan(...any) error }) (models.Place, error) {
	var p models.Place
	err := row.Scan(&p.ID, &p.Name, &p.Location, &p.Description, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r PlaceRepository) collect(rows *sql.Rows) ([]models.Place, error) {
	defer rows.Close()
	out := []models.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r PlaceRepository) List(ctx context.Context, activeOnly bool) ([]models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places`
	if activeOnly {
		query += ` WHERE is_active=1`
	}
	query += ` ORDER BY name ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	return r.collect(rows)
}

// GetByIDs returns the places that exist among ids, ordered by id.
func (r PlaceRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Place, error) {
	if len(ids) == 0 {
		return []models.Place{}, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+placeColumns+` FROM places WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id ASC`,
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get places: %w", err)
	}
	return r.collect(rows)
}

func (r PlaceRepository) GetByID(ctx context.Context, id int64) (models.Place, error) {
	p, err := scanPlace(r.DB.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Place{}, domain.NotFoundError{Resource: "place", Err: err}
	}
	if err != nil {
		return models.Place{}, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

func (r PlaceRepository) Create(ctx context.Context, p models.Place) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO places (name, location, description, price, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Location, p.Description, p.Price, p.IsActive)
	if err != nil {
		return 0, intdb.MapWriteError(err, "place", "place already exists")
	}
	return res.LastInsertId()
}

func (r PlaceRepository) Update(ctx context.Context, p models.Place) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE places SET name=?, location=?, description=?, price=?, is_active=?
		WHERE id=?
	`, p.Name, p.Location, p.Description, p.Price, p.IsActive, p.ID)
	if err != nil {
		return intdb.MapWriteError(err, "place", "place already exists")
	}
	return requireAffected(res, "place")
}

func (r PlaceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM places WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return requireAffected(res, "place")
}

// References counts packages and user selections that include the place.
func (r PlaceRepository) References(ctx context.Context, id int64) (int, error) {
	return countRows(ctx, r.DB, `
		SELECT
			(SELECT COUNT(*) FROM package_places WHERE place_id=?) +
			(SELECT COUNT(*) FROM user_extra_places WHERE place_id=?)
	`, id, id)
}

func (r PlaceRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT COUNT(*) FROM places`)
}
