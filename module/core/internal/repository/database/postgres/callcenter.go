package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
)

var _ database.CallCenterRepository = (*CallCenterRepo)(nil)

type CallCenterRepo struct {
	db *sql.DB
}

func NewCallCenterRepo(db *sql.DB) *CallCenterRepo {
	return &CallCenterRepo{db: db}
}

// FindCallCenters loads centers with categories, areas and ring coordinates
// in four bulk queries. Areas come back ascending by priority, ring
// coordinates ascending by sequence.
func (r *CallCenterRepo) FindCallCenters(ctx context.Context, countryID int64) ([]domain.CallCenter, error) {
	centers, err := r.queryCenters(ctx, countryID)
	if err != nil {
		return nil, err
	}
	if len(centers) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(centers))
	byID := make(map[int64]*domain.CallCenter, len(centers))
	for i := range centers {
		ids = append(ids, centers[i].ID)
		byID[centers[i].ID] = &centers[i]
	}

	if err := r.attachCategories(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.attachAreas(ctx, ids, byID); err != nil {
		return nil, err
	}
	return centers, nil
}

func (r *CallCenterRepo) queryCenters(ctx context.Context, countryID int64) ([]domain.CallCenter, error) {
	query := `SELECT call_center_id, name, default_latitude, default_longitude, country_id FROM call_centers`
	args := []interface{}{}
	if countryID != 0 {
		query += ` WHERE country_id = $1`
		args = append(args, countryID)
	}
	query += ` ORDER BY call_center_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query call centers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var centers []domain.CallCenter
	for rows.Next() {
		var cc domain.CallCenter
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.DefaultLocation.Lat, &cc.DefaultLocation.Lng, &cc.CountryID); err != nil {
			return nil, err
		}
		centers = append(centers, cc)
	}
	return centers, rows.Err()
}

func (r *CallCenterRepo) attachCategories(ctx context.Context, ids []int64, byID map[int64]*domain.CallCenter) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_center_id, emergency_cat_id, priority FROM call_center_emergency_categories WHERE call_center_id = ANY($1) ORDER BY call_center_id, priority`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ccID int64
		var ref domain.CategoryRef
		if err := rows.Scan(&ccID, &ref.EmergencyCatID, &ref.Priority); err != nil {
			return err
		}
		if cc, ok := byID[ccID]; ok {
			cc.Categories = append(cc.Categories, ref)
		}
	}
	return rows.Err()
}

func (r *CallCenterRepo) attachAreas(ctx context.Context, ids []int64, byID map[int64]*domain.CallCenter) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_center_area_id, call_center_id, description, center_latitude, center_longitude, area_size, priority FROM call_center_areas WHERE call_center_id = ANY($1) ORDER BY call_center_id, priority`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("query areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var areas []domain.CoverageArea
	for rows.Next() {
		var a domain.CoverageArea
		if err := rows.Scan(&a.ID, &a.CallCenterID, &a.Description, &a.Center.Lat, &a.Center.Lng, &a.AreaSize, &a.Priority); err != nil {
			return err
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(areas) == 0 {
		return nil
	}

	areaIdx := make(map[int64]int, len(areas))
	areaIDs := make([]int64, len(areas))
	for i := range areas {
		areaIdx[areas[i].ID] = i
		areaIDs[i] = areas[i].ID
	}

	coordRows, err := r.db.QueryContext(ctx,
		`SELECT call_center_area_id, latitude, longitude FROM call_center_area_coordinates WHERE call_center_area_id = ANY($1) ORDER BY call_center_area_id, sequence`,
		pq.Array(areaIDs),
	)
	if err != nil {
		return fmt.Errorf("query area coordinates: %w", err)
	}
	defer func() { _ = coordRows.Close() }()

	for coordRows.Next() {
		var areaID int64
		var c domain.Coordinate
		if err := coordRows.Scan(&areaID, &c.Lat, &c.Lng); err != nil {
			return err
		}
		if i, ok := areaIdx[areaID]; ok {
			areas[i].Polygon = append(areas[i].Polygon, c)
		}
	}
	if err := coordRows.Err(); err != nil {
		return err
	}

	for _, a := range areas {
		if cc, ok := byID[a.CallCenterID]; ok {
			cc.Areas = append(cc.Areas, a)
		}
	}
	for _, cc := range byID {
		sort.Slice(cc.Areas, func(i, j int) bool { return cc.Areas[i].Priority < cc.Areas[j].Priority })
	}
	return nil
}

// ReplaceCategories swaps the center's category set for the given list,
// assigning priorities 1..M from list order.
func (r *CallCenterRepo) ReplaceCategories(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM call_center_emergency_categories WHERE call_center_id = $1`, callCenterID,
	); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}

	for i, catID := range emergencyCatIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO call_center_emergency_categories (call_center_id, emergency_cat_id, priority) VALUES ($1, $2, $3)`,
			callCenterID, catID, i+1,
		); err != nil {
			return fmt.Errorf("insert category %d: %w", catID, err)
		}
	}
	return tx.Commit()
}
