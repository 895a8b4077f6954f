package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sayvu/dispatch/module/core/domain"
)

type mockAreaService struct {
	createFn         func(ctx context.Context, callCenterID int64, polygon domain.Polygon, description string) (*domain.CoverageArea, error)
	promoteFn        func(ctx context.Context, areaID int64) (bool, error)
	demoteFn         func(ctx context.Context, areaID int64) (bool, error)
	setDescriptionFn func(ctx context.Context, areaID int64, description string) error
	removeFn         func(ctx context.Context, areaID int64) error
	orderedAreasFn   func(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error)
}

func (m *mockAreaService) Create(ctx context.Context, callCenterID int64, polygon domain.Polygon, description string) (*domain.CoverageArea, error) {
	return m.createFn(ctx, callCenterID, polygon, description)
}

func (m *mockAreaService) Promote(ctx context.Context, areaID int64) (bool, error) {
	return m.promoteFn(ctx, areaID)
}

func (m *mockAreaService) Demote(ctx context.Context, areaID int64) (bool, error) {
	return m.demoteFn(ctx, areaID)
}

func (m *mockAreaService) SetDescription(ctx context.Context, areaID int64, description string) error {
	return m.setDescriptionFn(ctx, areaID, description)
}

func (m *mockAreaService) Remove(ctx context.Context, areaID int64) error {
	return m.removeFn(ctx, areaID)
}

func (m *mockAreaService) OrderedAreas(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error) {
	return m.orderedAreasFn(ctx, callCenterID)
}

type mockCategoryService struct {
	setCategoriesFn func(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error
}

func (m *mockCategoryService) SetCategories(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error {
	return m.setCategoriesFn(ctx, callCenterID, emergencyCatIDs)
}

func setupCenterRouter(areaSvc areaService, catSvc categoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCallCenterHandler(areaSvc, catSvc)
	h.Register(r.Group(""))
	return r
}

func TestCreateArea_Success(t *testing.T) {
	areaSvc := &mockAreaService{
		createFn: func(_ context.Context, callCenterID int64, polygon domain.Polygon, description string) (*domain.CoverageArea, error) {
			if callCenterID != 5 {
				t.Fatalf("unexpected call center: %d", callCenterID)
			}
			if len(polygon) != 3 || description != "city center" {
				t.Fatalf("unexpected request: %v %q", polygon, description)
			}
			return &domain.CoverageArea{ID: 42, CallCenterID: 5, Description: description, Priority: 1, Polygon: polygon}, nil
		},
	}

	body := `{"description": "city center", "coordinates": [{"latitude": 0, "longitude": 0}, {"latitude": 0, "longitude": 1}, {"latitude": 1, "longitude": 1}]}`
	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/call-centers/5/areas", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.CoverageArea
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ID != 42 || resp.Priority != 1 {
		t.Errorf("unexpected area: %+v", resp)
	}
}

func TestCreateArea_DegeneratePolygon(t *testing.T) {
	areaSvc := &mockAreaService{
		createFn: func(_ context.Context, _ int64, _ domain.Polygon, _ string) (*domain.CoverageArea, error) {
			return nil, &domain.GeometryError{Reason: "polygon needs at least 3 vertices"}
		},
	}

	body := `{"description": "line", "coordinates": [{"latitude": 0, "longitude": 0}]}`
	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/call-centers/5/areas", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListAreas_Success(t *testing.T) {
	areaSvc := &mockAreaService{
		orderedAreasFn: func(_ context.Context, callCenterID int64) ([]domain.CoverageArea, error) {
			if callCenterID != 5 {
				t.Fatalf("unexpected call center: %d", callCenterID)
			}
			return []domain.CoverageArea{
				{ID: 41, Priority: 1},
				{ID: 42, Priority: 2},
			}, nil
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/call-centers/5/areas", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []domain.CoverageArea
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 || resp[0].Priority != 1 {
		t.Errorf("unexpected areas: %+v", resp)
	}
}

func TestPromoteArea_Moved(t *testing.T) {
	areaSvc := &mockAreaService{
		promoteFn: func(_ context.Context, areaID int64) (bool, error) {
			if areaID != 42 {
				t.Fatalf("unexpected area: %d", areaID)
			}
			return true, nil
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/areas/42/promote", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["moved"] != true {
		t.Errorf("expected moved true, got %v", resp)
	}
}

func TestDemoteArea_AtBottomReportsNotMoved(t *testing.T) {
	areaSvc := &mockAreaService{
		demoteFn: func(_ context.Context, _ int64) (bool, error) {
			return false, nil
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/areas/42/demote", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["moved"] != false {
		t.Errorf("expected moved false, got %v", resp)
	}
}

func TestPromoteArea_NotFound(t *testing.T) {
	areaSvc := &mockAreaService{
		promoteFn: func(_ context.Context, _ int64) (bool, error) {
			return false, domain.ErrNotFound
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/areas/404/promote", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRenameArea_Success(t *testing.T) {
	var gotAreaID int64
	var gotDescription string
	areaSvc := &mockAreaService{
		setDescriptionFn: func(_ context.Context, areaID int64, description string) error {
			gotAreaID = areaID
			gotDescription = description
			return nil
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/areas/42", bytes.NewBufferString(`{"description": "harbor district"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotAreaID != 42 || gotDescription != "harbor district" {
		t.Errorf("expected (42, harbor district), got (%d, %q)", gotAreaID, gotDescription)
	}
}

func TestRenameArea_MissingDescription(t *testing.T) {
	r := setupCenterRouter(&mockAreaService{}, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/areas/42", bytes.NewBufferString(`{}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRenameArea_NotFound(t *testing.T) {
	areaSvc := &mockAreaService{
		setDescriptionFn: func(_ context.Context, _ int64, _ string) error {
			return domain.ErrNotFound
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/areas/404", bytes.NewBufferString(`{"description": "x"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteArea_Success(t *testing.T) {
	var removed int64
	areaSvc := &mockAreaService{
		removeFn: func(_ context.Context, areaID int64) error {
			removed = areaID
			return nil
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/areas/42", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if removed != 42 {
		t.Errorf("expected area 42 removed, got %d", removed)
	}
}

func TestDeleteArea_NotFound(t *testing.T) {
	areaSvc := &mockAreaService{
		removeFn: func(_ context.Context, _ int64) error {
			return domain.ErrNotFound
		},
	}

	r := setupCenterRouter(areaSvc, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/areas/404", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSetCategories_Success(t *testing.T) {
	var gotCenterID int64
	var gotCats []int64
	catSvc := &mockCategoryService{
		setCategoriesFn: func(_ context.Context, callCenterID int64, emergencyCatIDs []int64) error {
			gotCenterID = callCenterID
			gotCats = emergencyCatIDs
			return nil
		},
	}

	r := setupCenterRouter(&mockAreaService{}, catSvc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/call-centers/5/categories", bytes.NewBufferString(`{"emergency_cat_ids": [3, 7, 9]}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotCenterID != 5 {
		t.Errorf("expected call center 5, got %d", gotCenterID)
	}
	if len(gotCats) != 3 || gotCats[2] != 9 {
		t.Errorf("expected categories [3 7 9], got %v", gotCats)
	}
}

func TestSetCategories_InvalidCallCenterID(t *testing.T) {
	r := setupCenterRouter(&mockAreaService{}, &mockCategoryService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/call-centers/0/categories", bytes.NewBufferString(`{"emergency_cat_ids": [3]}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
