package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
	"github.com/sayvu/dispatch/module/core/internal/repository/publisher"
)

// ReportService persists report lifecycle state. Dispatch itself is the
// engine's job; report sources call File/Update and then hand the report to
// the DispatchEngine.
type ReportService struct {
	reports  database.ReportRepository
	notifier publisher.ReportNotifier
	now      func() time.Time
}

func NewReportService(reports database.ReportRepository, notifier publisher.ReportNotifier) *ReportService {
	return &ReportService{reports: reports, notifier: notifier, now: time.Now}
}

// File validates and stores a new report in the open status.
func (s *ReportService) File(ctx context.Context, in *domain.ReportInput) (*domain.Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rep := &domain.Report{
		ReporterID:        in.ReporterID,
		Location:          *in.Location,
		CountryID:         in.CountryID,
		EmergencyCatID:    in.EmergencyCatID,
		EmergencySubCatID: in.EmergencySubCatID,
		InvolvedID:        in.InvolvedID,
		InvolvedAmountID:  in.InvolvedAmountID,
		StatusID:          domain.StatusOpen,
		AddedTime:         s.now(),
	}

	id, err := s.reports.Insert(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	rep.ID = id
	return rep, nil
}

// Update merges the input into the stored report and stamps the update
// time. Absent input fields keep their stored values, mirroring how staff
// corrections arrive as partial payloads.
func (s *ReportService) Update(ctx context.Context, reportID int64, in *domain.ReportInput) (*domain.Report, error) {
	rep, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if in.Location != nil {
		if !in.Location.Valid() {
			return nil, fmt.Errorf("location: latitude must be in [-90, 90] and longitude in [-180, 180]")
		}
		rep.Location = *in.Location
	}
	if in.CountryID > 0 {
		rep.CountryID = in.CountryID
	}
	if in.EmergencyCatID > 0 {
		rep.EmergencyCatID = in.EmergencyCatID
	}
	if in.EmergencySubCatID > 0 {
		rep.EmergencySubCatID = in.EmergencySubCatID
	}
	if in.InvolvedID > 0 {
		rep.InvolvedID = in.InvolvedID
	}
	if in.InvolvedAmountID > 0 {
		rep.InvolvedAmountID = in.InvolvedAmountID
	}
	rep.UpdatedTime = s.now()

	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return rep, nil
}

// UpdateStatus moves the report through its lifecycle and tells tracking
// call centers it changed.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID, statusID int64) error {
	if !domain.ValidStatus(statusID) {
		return fmt.Errorf("unknown report status %d", statusID)
	}
	if err := s.reports.UpdateStatus(ctx, reportID, statusID); err != nil {
		return err
	}
	if err := s.notifier.BroadcastReportChanged(ctx, reportID); err != nil {
		return fmt.Errorf("broadcast status change: %w", err)
	}
	return nil
}

// CenterReports lists a call center's reports, newest first.
func (s *ReportService) CenterReports(ctx context.Context, q *domain.CenterReportsQuery) ([]domain.Report, error) {
	return s.reports.CenterReports(ctx, q)
}
