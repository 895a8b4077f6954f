package domain

import (
	"fmt"
	"time"
)

const (
	StatusOpen       int64 = 1
	StatusInProgress int64 = 2
	StatusResolved   int64 = 3
	StatusDismissed  int64 = 4
)

// ValidStatus reports whether statusID is a known report status.
func ValidStatus(statusID int64) bool {
	return statusID >= StatusOpen && statusID <= StatusDismissed
}

type Report struct {
	ID                int64      `json:"report_id"`
	ReporterID        int64      `json:"reporter_id"`
	Location          Coordinate `json:"location"`
	CountryID         int64      `json:"country_id"`
	EmergencyCatID    int64      `json:"emergency_cat_id"`
	EmergencySubCatID int64      `json:"emergency_sub_cat_id"`
	InvolvedID        int64      `json:"involved_id"`
	InvolvedAmountID  int64      `json:"involved_amount_id"`
	StatusID          int64      `json:"report_status_id"`
	AddedTime         time.Time  `json:"added_time"`
	UpdatedTime       time.Time  `json:"updated_time"`
}

// ReportInput is the shape supplied by report sources (the mobile gateway
// over MQTT or the staff HTTP API) when filing or updating a report. A nil
// Location means "not supplied" on update, so a report can be corrected to
// any valid coordinate, (0, 0) included.
type ReportInput struct {
	ReporterID        int64       `json:"reporter_id"`
	Location          *Coordinate `json:"location"`
	CountryID         int64       `json:"country_id"`
	EmergencyCatID    int64       `json:"emergency_cat_id"`
	EmergencySubCatID int64       `json:"emergency_sub_cat_id"`
	InvolvedID        int64       `json:"involved_id"`
	InvolvedAmountID  int64       `json:"involved_amount_id"`
}

// Validate checks the fields every report source must supply.
func (in *ReportInput) Validate() error {
	if in.ReporterID <= 0 {
		return fmt.Errorf("reporter_id: must be a positive integer")
	}
	if in.Location == nil || !in.Location.Valid() {
		return fmt.Errorf("location: latitude must be in [-90, 90] and longitude in [-180, 180]")
	}
	if in.EmergencyCatID <= 0 {
		return fmt.Errorf("emergency_cat_id: must be a positive integer")
	}
	return nil
}

// DispatchResult is the outcome of routing one report. AnyMatch false means
// no call center is responsible for the report; callers must surface that
// rather than treat it as success.
type DispatchResult struct {
	MatchedCallCenterIDs []int64 `json:"matched_call_center_ids"`
	AnyMatch             bool    `json:"any_match"`
}

// CenterReportsQuery selects a call center's reports, newest first.
type CenterReportsQuery struct {
	CallCenterID int64
	FromReportID int64
	StatusIDs    []int64
	Limit        int
	Offset       int
}

type NotificationEvent string

const (
	EventReportFiled   NotificationEvent = "report_filed"
	EventReportChanged NotificationEvent = "report_changed"
)

// CenterNotification is the payload delivered to one matched call center.
type CenterNotification struct {
	EventID        string            `json:"event_id"`
	Event          NotificationEvent `json:"event"`
	ReportID       int64             `json:"report_id"`
	CallCenterID   int64             `json:"call_center_id"`
	EmergencyCatID int64             `json:"emergency_cat_id"`
	Location       Coordinate        `json:"location"`
}
