package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
)

var _ database.AreaRepository = (*AreaRepo)(nil)

type AreaRepo struct {
	db *sql.DB
}

func NewAreaRepo(db *sql.DB) *AreaRepo {
	return &AreaRepo{db: db}
}

// Insert stores the area and its ring coordinates in one transaction and
// returns the new area ID.
func (r *AreaRepo) Insert(ctx context.Context, area *domain.CoverageArea) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var areaID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO call_center_areas (call_center_id, description, center_latitude, center_longitude, area_size, priority) VALUES ($1, $2, $3, $4, $5, $6) RETURNING call_center_area_id`,
		area.CallCenterID, area.Description, area.Center.Lat, area.Center.Lng, area.AreaSize, area.Priority,
	).Scan(&areaID)
	if err != nil {
		return 0, fmt.Errorf("insert area: %w", err)
	}

	for i, c := range area.Polygon {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO call_center_area_coordinates (call_center_area_id, latitude, longitude, sequence) VALUES ($1, $2, $3, $4)`,
			areaID, c.Lat, c.Lng, i+1,
		); err != nil {
			return 0, fmt.Errorf("insert coordinate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return areaID, nil
}

func (r *AreaRepo) Get(ctx context.Context, areaID int64) (*domain.CoverageArea, error) {
	var a domain.CoverageArea
	err := r.db.QueryRowContext(ctx,
		`SELECT call_center_area_id, call_center_id, description, center_latitude, center_longitude, area_size, priority FROM call_center_areas WHERE call_center_area_id = $1`,
		areaID,
	).Scan(&a.ID, &a.CallCenterID, &a.Description, &a.Center.Lat, &a.Center.Lng, &a.AreaSize, &a.Priority)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT latitude, longitude FROM call_center_area_coordinates WHERE call_center_area_id = $1 ORDER BY sequence`,
		areaID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c domain.Coordinate
		if err := rows.Scan(&c.Lat, &c.Lng); err != nil {
			return nil, err
		}
		a.Polygon = append(a.Polygon, c)
	}
	return &a, rows.Err()
}

// SwapPriorities exchanges two ranks of a call center in one transaction.
// Both rows are locked first so a concurrent catalog read sees either the
// old ordering or the new one, never one leg of the swap.
func (r *AreaRepo) SwapPriorities(ctx context.Context, callCenterID int64, a, b int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT call_center_area_id, priority FROM call_center_areas WHERE call_center_id = $1 AND priority IN ($2, $3) FOR UPDATE`,
		callCenterID, a, b,
	)
	if err != nil {
		return fmt.Errorf("lock ranks: %w", err)
	}

	ids := make(map[int]int64, 2)
	for rows.Next() {
		var areaID int64
		var priority int
		if err := rows.Scan(&areaID, &priority); err != nil {
			_ = rows.Close()
			return err
		}
		ids[priority] = areaID
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	if len(ids) != 2 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE call_center_areas SET priority = $1 WHERE call_center_area_id = $2`,
		b, ids[a],
	); err != nil {
		return fmt.Errorf("move rank %d: %w", a, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE call_center_areas SET priority = $1 WHERE call_center_area_id = $2`,
		a, ids[b],
	); err != nil {
		return fmt.Errorf("move rank %d: %w", b, err)
	}

	return tx.Commit()
}

func (r *AreaRepo) SetDescription(ctx context.Context, areaID int64, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE call_center_areas SET description = $1 WHERE call_center_area_id = $2`,
		description, areaID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the area and re-densifies the center's priority sequence
// in the same transaction, so the store never exposes a gap.
func (r *AreaRepo) Delete(ctx context.Context, areaID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var callCenterID int64
	var priority int
	err = tx.QueryRowContext(ctx,
		`SELECT call_center_id, priority FROM call_center_areas WHERE call_center_area_id = $1 FOR UPDATE`,
		areaID,
	).Scan(&callCenterID, &priority)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM call_center_area_coordinates WHERE call_center_area_id = $1`, areaID,
	); err != nil {
		return fmt.Errorf("delete coordinates: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM call_center_areas WHERE call_center_area_id = $1`, areaID,
	); err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE call_center_areas SET priority = priority - 1 WHERE call_center_id = $1 AND priority > $2`,
		callCenterID, priority,
	); err != nil {
		return fmt.Errorf("close priority gap: %w", err)
	}

	return tx.Commit()
}

func (r *AreaRepo) ListOrdered(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_center_area_id, call_center_id, description, center_latitude, center_longitude, area_size, priority FROM call_center_areas WHERE call_center_id = $1 ORDER BY priority`,
		callCenterID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var areas []domain.CoverageArea
	for rows.Next() {
		var a domain.CoverageArea
		if err := rows.Scan(&a.ID, &a.CallCenterID, &a.Description, &a.Center.Lat, &a.Center.Lng, &a.AreaSize, &a.Priority); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range areas {
		coordRows, err := r.db.QueryContext(ctx,
			`SELECT latitude, longitude FROM call_center_area_coordinates WHERE call_center_area_id = $1 ORDER BY sequence`,
			areas[i].ID,
		)
		if err != nil {
			return nil, err
		}
		for coordRows.Next() {
			var c domain.Coordinate
			if err := coordRows.Scan(&c.Lat, &c.Lng); err != nil {
				_ = coordRows.Close()
				return nil, err
			}
			areas[i].Polygon = append(areas[i].Polygon, c)
		}
		if err := coordRows.Err(); err != nil {
			_ = coordRows.Close()
			return nil, err
		}
		_ = coordRows.Close()
	}
	return areas, nil
}

func (r *AreaRepo) Priorities(ctx context.Context, callCenterID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT priority FROM call_center_areas WHERE call_center_id = $1 ORDER BY priority`,
		callCenterID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var priorities []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		priorities = append(priorities, p)
	}
	return priorities, rows.Err()
}
