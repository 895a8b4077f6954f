package database

import (
	"context"

	"github.com/sayvu/dispatch/module/core/domain"
)

// CallCenterRepository reads call centers with their nested category sets
// and priority-ordered coverage areas.
type CallCenterRepository interface {
	// FindCallCenters returns the centers for a country; countryID 0 means
	// all countries.
	FindCallCenters(ctx context.Context, countryID int64) ([]domain.CallCenter, error)
	ReplaceCategories(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error
}

// AreaRepository persists coverage areas and their priority sequence.
// Callers are responsible for serializing priority mutations per call
// center; the repository executes each mutation atomically so a reader
// never observes a half-applied one.
type AreaRepository interface {
	Insert(ctx context.Context, area *domain.CoverageArea) (int64, error)
	Get(ctx context.Context, areaID int64) (*domain.CoverageArea, error)
	// SwapPriorities exchanges the ranks a and b of the call center in one
	// transaction, returning domain.ErrNotFound when either rank is vacant.
	SwapPriorities(ctx context.Context, callCenterID int64, a, b int) error
	SetDescription(ctx context.Context, areaID int64, description string) error
	// Delete removes the area with its ring coordinates and closes the gap
	// it leaves in the priority sequence, all in one transaction.
	Delete(ctx context.Context, areaID int64) error
	ListOrdered(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error)
	Priorities(ctx context.Context, callCenterID int64) ([]int, error)
}

// ReportRepository persists reports and the report-to-call-center relation.
type ReportRepository interface {
	Insert(ctx context.Context, r *domain.Report) (int64, error)
	Get(ctx context.Context, reportID int64) (*domain.Report, error)
	Update(ctx context.Context, r *domain.Report) error
	UpdateStatus(ctx context.Context, reportID, statusID int64) error
	SaveMatch(ctx context.Context, reportID, callCenterID int64) error
	DeleteMatch(ctx context.Context, reportID, callCenterID int64) error
	FindMatches(ctx context.Context, reportID int64) ([]int64, error)
	CenterReports(ctx context.Context, q *domain.CenterReportsQuery) ([]domain.Report, error)
}
