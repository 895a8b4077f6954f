package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func centerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"call_center_id", "name", "default_latitude", "default_longitude", "country_id"})
}

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"call_center_id", "emergency_cat_id", "priority"})
}

func areaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"call_center_area_id", "call_center_id", "description", "center_latitude", "center_longitude", "area_size", "priority"})
}

func coordinateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"call_center_area_id", "latitude", "longitude"})
}

func TestFindCallCenters_AssemblesNestedCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT call_center_id, name, default_latitude, default_longitude, country_id FROM call_centers ORDER BY call_center_id`).
		WillReturnRows(centerRows().
			AddRow(int64(1), "Tel Aviv", 32.08, 34.78, int64(1)).
			AddRow(int64(2), "Haifa", 32.79, 34.98, int64(1)))

	mock.ExpectQuery(`SELECT call_center_id, emergency_cat_id, priority FROM call_center_emergency_categories`).
		WillReturnRows(categoryRows().
			AddRow(int64(1), int64(3), 1).
			AddRow(int64(1), int64(4), 2).
			AddRow(int64(2), int64(3), 1))

	mock.ExpectQuery(`SELECT (.+) FROM call_center_areas WHERE call_center_id = ANY`).
		WillReturnRows(areaRows().
			AddRow(int64(10), int64(1), "north", 0.5, 0.5, 1.0, 1).
			AddRow(int64(11), int64(1), "south", 1.5, 1.5, 1.0, 2).
			AddRow(int64(20), int64(2), "bay", 2.5, 2.5, 1.0, 1))

	mock.ExpectQuery(`SELECT call_center_area_id, latitude, longitude FROM call_center_area_coordinates`).
		WillReturnRows(coordinateRows().
			AddRow(int64(10), 0.0, 0.0).
			AddRow(int64(10), 0.0, 1.0).
			AddRow(int64(10), 1.0, 1.0).
			AddRow(int64(11), 1.0, 1.0).
			AddRow(int64(11), 1.0, 2.0).
			AddRow(int64(11), 2.0, 2.0).
			AddRow(int64(20), 2.0, 2.0).
			AddRow(int64(20), 2.0, 3.0).
			AddRow(int64(20), 3.0, 3.0))

	repo := NewCallCenterRepo(db)
	centers, err := repo.FindCallCenters(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(centers) != 2 {
		t.Fatalf("expected 2 centers, got %d", len(centers))
	}

	first := centers[0]
	if first.Name != "Tel Aviv" {
		t.Errorf("expected Tel Aviv first, got %s", first.Name)
	}
	if len(first.Categories) != 2 || first.Categories[0].EmergencyCatID != 3 {
		t.Errorf("unexpected categories: %+v", first.Categories)
	}
	if len(first.Areas) != 2 {
		t.Fatalf("expected 2 areas on first center, got %d", len(first.Areas))
	}
	if first.Areas[0].Priority != 1 || first.Areas[1].Priority != 2 {
		t.Errorf("areas must come back ascending by priority, got %+v", first.Areas)
	}
	if len(first.Areas[0].Polygon) != 3 {
		t.Errorf("expected 3 ring coordinates, got %d", len(first.Areas[0].Polygon))
	}
	if len(centers[1].Areas) != 1 || centers[1].Areas[0].ID != 20 {
		t.Errorf("unexpected second center areas: %+v", centers[1].Areas)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindCallCenters_CountryFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM call_centers WHERE country_id = (.+) ORDER BY call_center_id`).
		WithArgs(int64(2)).
		WillReturnRows(centerRows().AddRow(int64(3), "Ankara", 39.9, 32.8, int64(2)))
	mock.ExpectQuery(`SELECT (.+) FROM call_center_emergency_categories`).
		WillReturnRows(categoryRows())
	mock.ExpectQuery(`SELECT (.+) FROM call_center_areas`).
		WillReturnRows(areaRows())

	repo := NewCallCenterRepo(db)
	centers, err := repo.FindCallCenters(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(centers) != 1 || centers[0].CountryID != 2 {
		t.Errorf("expected one country-2 center, got %+v", centers)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindCallCenters_EmptyCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM call_centers`).
		WillReturnRows(centerRows())

	repo := NewCallCenterRepo(db)
	centers, err := repo.FindCallCenters(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(centers) != 0 {
		t.Fatalf("expected no centers, got %d", len(centers))
	}
}

func TestReplaceCategories_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM call_center_emergency_categories`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO call_center_emergency_categories`).
		WithArgs(int64(5), int64(3), 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO call_center_emergency_categories`).
		WithArgs(int64(5), int64(7), 2).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := NewCallCenterRepo(db)
	if err := repo.ReplaceCategories(context.Background(), 5, []int64{3, 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceCategories_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM call_center_emergency_categories`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO call_center_emergency_categories`).
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	repo := NewCallCenterRepo(db)
	if err := repo.ReplaceCategories(context.Background(), 5, []int64{3}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
