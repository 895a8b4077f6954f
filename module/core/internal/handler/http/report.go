package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sayvu/dispatch/module/core/domain"
)

type reportService interface {
	File(ctx context.Context, in *domain.ReportInput) (*domain.Report, error)
	Update(ctx context.Context, reportID int64, in *domain.ReportInput) (*domain.Report, error)
	UpdateStatus(ctx context.Context, reportID, statusID int64) error
	CenterReports(ctx context.Context, q *domain.CenterReportsQuery) ([]domain.Report, error)
}

type dispatchService interface {
	Dispatch(ctx context.Context, rep *domain.Report) (domain.DispatchResult, error)
}

// Latitude and longitude are pointers so a PATCH can leave the location
// untouched while still being able to correct it to (0, 0).
type reportRequest struct {
	ReporterID        int64    `json:"reporter_id"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	CountryID         int64    `json:"country_id"`
	EmergencyCatID    int64    `json:"emergency_cat_id"`
	EmergencySubCatID int64    `json:"emergency_sub_cat_id"`
	InvolvedID        int64    `json:"involved_id"`
	InvolvedAmountID  int64    `json:"involved_amount_id"`
}

func (r *reportRequest) toInput() *domain.ReportInput {
	in := &domain.ReportInput{
		ReporterID:        r.ReporterID,
		CountryID:         r.CountryID,
		EmergencyCatID:    r.EmergencyCatID,
		EmergencySubCatID: r.EmergencySubCatID,
		InvolvedID:        r.InvolvedID,
		InvolvedAmountID:  r.InvolvedAmountID,
	}
	if r.Latitude != nil && r.Longitude != nil {
		in.Location = &domain.Coordinate{Lat: *r.Latitude, Lng: *r.Longitude}
	}
	return in
}

type dispatchResponse struct {
	ReportID             int64   `json:"report_id"`
	MatchedCallCenterIDs []int64 `json:"matched_call_center_ids"`
	AnyMatch             bool    `json:"any_match"`
}

type ReportHandler struct {
	reportSvc   reportService
	dispatchSvc dispatchService
}

func NewReportHandler(reportSvc reportService, dispatchSvc dispatchService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, dispatchSvc: dispatchSvc}
}

func (h *ReportHandler) Register(r *gin.RouterGroup) {
	r.POST("/reports", h.FileReport)
	r.PATCH("/reports/:report_id", h.UpdateReport)
	r.PUT("/reports/:report_id/status", h.UpdateStatus)
	r.GET("/call-centers/:call_center_id/reports", h.CenterReports)
}

func (h *ReportHandler) FileReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := req.toInput()
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.reportSvc.File(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}

	result, err := h.dispatchSvc.Dispatch(c.Request.Context(), rep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report stored but dispatch failed", "report_id": rep.ID})
		return
	}

	c.JSON(http.StatusCreated, dispatchResponse{
		ReportID:             rep.ID,
		MatchedCallCenterIDs: result.MatchedCallCenterIDs,
		AnyMatch:             result.AnyMatch,
	})
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("report_id"), 10, 64)
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report_id"})
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rep, err := h.reportSvc.Update(c.Request.Context(), reportID, req.toInput())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report"})
		return
	}

	result, err := h.dispatchSvc.Dispatch(c.Request.Context(), rep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report updated but dispatch failed", "report_id": rep.ID})
		return
	}

	c.JSON(http.StatusOK, dispatchResponse{
		ReportID:             rep.ID,
		MatchedCallCenterIDs: result.MatchedCallCenterIDs,
		AnyMatch:             result.AnyMatch,
	})
}

func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("report_id"), 10, 64)
	if err != nil || reportID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report_id"})
		return
	}

	var req struct {
		StatusID int64 `json:"report_status_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err = h.reportSvc.UpdateStatus(c.Request.Context(), reportID, req.StatusID)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report_id": reportID, "report_status_id": req.StatusID})
}

func (h *ReportHandler) CenterReports(c *gin.Context) {
	callCenterID, err := strconv.ParseInt(c.Param("call_center_id"), 10, 64)
	if err != nil || callCenterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call_center_id"})
		return
	}

	q := &domain.CenterReportsQuery{CallCenterID: callCenterID}

	if v := c.Query("from_report_id"); v != "" {
		q.FromReportID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_report_id"})
			return
		}
	}
	if v := c.Query("limit"); v != "" {
		q.Limit, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		q.Offset, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
	}
	for _, v := range c.QueryArray("status_id") {
		statusID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status_id"})
			return
		}
		q.StatusIDs = append(q.StatusIDs, statusID)
	}

	reports, err := h.reportSvc.CenterReports(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, reports)
}
