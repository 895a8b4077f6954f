package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/lib/pq"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
)

var _ database.ReportRepository = (*ReportRepo)(nil)

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

const reportColumns = `report_id, reporter_id, latitude, longitude, country_id, emergency_cat_id, emergency_sub_cat_id, involved_id, involved_amount_id, report_status_id, added_time, updated_time`

func scanReport(row interface{ Scan(...interface{}) error }) (*domain.Report, error) {
	var rep domain.Report
	var updated sql.NullTime
	err := row.Scan(
		&rep.ID, &rep.ReporterID, &rep.Location.Lat, &rep.Location.Lng, &rep.CountryID,
		&rep.EmergencyCatID, &rep.EmergencySubCatID, &rep.InvolvedID, &rep.InvolvedAmountID,
		&rep.StatusID, &rep.AddedTime, &updated,
	)
	if err != nil {
		return nil, err
	}
	if updated.Valid {
		rep.UpdatedTime = updated.Time
	}
	return &rep, nil
}

func (r *ReportRepo) Insert(ctx context.Context, rep *domain.Report) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reports (reporter_id, latitude, longitude, country_id, emergency_cat_id, emergency_sub_cat_id, involved_id, involved_amount_id, report_status_id, added_time) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING report_id`,
		rep.ReporterID, rep.Location.Lat, rep.Location.Lng, rep.CountryID,
		rep.EmergencyCatID, rep.EmergencySubCatID, rep.InvolvedID, rep.InvolvedAmountID,
		rep.StatusID, rep.AddedTime,
	).Scan(&id)
	return id, err
}

func (r *ReportRepo) Get(ctx context.Context, reportID int64) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE report_id = $1`, reportID,
	)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rep, err
}

func (r *ReportRepo) Update(ctx context.Context, rep *domain.Report) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET latitude = $1, longitude = $2, country_id = $3, emergency_cat_id = $4, emergency_sub_cat_id = $5, involved_id = $6, involved_amount_id = $7, updated_time = $8 WHERE report_id = $9`,
		rep.Location.Lat, rep.Location.Lng, rep.CountryID, rep.EmergencyCatID,
		rep.EmergencySubCatID, rep.InvolvedID, rep.InvolvedAmountID, rep.UpdatedTime, rep.ID,
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

func (r *ReportRepo) UpdateStatus(ctx context.Context, reportID, statusID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET report_status_id = $1 WHERE report_id = $2`,
		statusID, reportID,
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

// SaveMatch is idempotent: re-dispatching a report must not duplicate a
// relation row.
func (r *ReportRepo) SaveMatch(ctx context.Context, reportID, callCenterID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports_call_centers (report_id, call_center_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		reportID, callCenterID,
	)
	return err
}

func (r *ReportRepo) DeleteMatch(ctx context.Context, reportID, callCenterID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reports_call_centers WHERE report_id = $1 AND call_center_id = $2`,
		reportID, callCenterID,
	)
	return err
}

func (r *ReportRepo) FindMatches(ctx context.Context, reportID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_center_id FROM reports_call_centers WHERE report_id = $1 ORDER BY call_center_id`,
		reportID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ReportRepo) CenterReports(ctx context.Context, q *domain.CenterReportsQuery) ([]domain.Report, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}

	query := `SELECT reports.report_id, reports.reporter_id, reports.latitude, reports.longitude, reports.country_id, reports.emergency_cat_id, reports.emergency_sub_cat_id, reports.involved_id, reports.involved_amount_id, reports.report_status_id, reports.added_time, reports.updated_time FROM reports_call_centers
		INNER JOIN reports ON reports.report_id = reports_call_centers.report_id
		WHERE reports_call_centers.call_center_id = $1 AND reports.report_id >= $2`
	args := []interface{}{q.CallCenterID, q.FromReportID}

	if len(q.StatusIDs) > 0 {
		query += ` AND reports.report_status_id = ANY($3)`
		args = append(args, pq.Array(q.StatusIDs))
	}
	query += ` ORDER BY reports.report_id DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reports []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}
