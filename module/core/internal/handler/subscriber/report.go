package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sayvu/dispatch/module/core/domain"
)

const (
	filedTopicPattern   = "/sayvu/report/+/filed"
	updatedTopicPattern = "/sayvu/report/+/updated"
)

type reportService interface {
	File(ctx context.Context, in *domain.ReportInput) (*domain.Report, error)
	Update(ctx context.Context, reportID int64, in *domain.ReportInput) (*domain.Report, error)
}

type dispatchService interface {
	Dispatch(ctx context.Context, rep *domain.Report) (domain.DispatchResult, error)
}

// The gateway always sends the reporter's current fix; pointers tell a
// missing coordinate apart from a genuine 0.
type reportMessage struct {
	ReportID          int64    `json:"report_id"`
	ReporterID        int64    `json:"reporter_id"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	CountryID         int64    `json:"country_id"`
	EmergencyCatID    int64    `json:"emergency_cat_id"`
	EmergencySubCatID int64    `json:"emergency_sub_cat_id"`
	InvolvedID        int64    `json:"involved_id"`
	InvolvedAmountID  int64    `json:"involved_amount_id"`
	Timestamp         int64    `json:"timestamp"`
}

// ReportSubscriber is the MQTT report source: the mobile gateway publishes
// filed and updated reports, the subscriber persists and dispatches them.
type ReportSubscriber struct {
	client      mqtt.Client
	reportSvc   reportService
	dispatchSvc dispatchService
}

func NewReportSubscriber(client mqtt.Client, reportSvc reportService, dispatchSvc dispatchService) *ReportSubscriber {
	return &ReportSubscriber{
		client:      client,
		reportSvc:   reportSvc,
		dispatchSvc: dispatchSvc,
	}
}

func (s *ReportSubscriber) Start() error {
	token := s.client.Subscribe(filedTopicPattern, 1, s.handleFiled)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}

	token = s.client.Subscribe(updatedTopicPattern, 1, s.handleUpdated)
	token.Wait()
	return token.Error()
}

func (s *ReportSubscriber) handleFiled(_ mqtt.Client, msg mqtt.Message) {
	_, in, err := decodeReportMessage(msg.Payload())
	if err != nil {
		log.Printf("invalid filed-report message: %v", err)
		return
	}

	ctx := context.Background()

	rep, err := s.reportSvc.File(ctx, in)
	if err != nil {
		log.Printf("file report error: %v", err)
		return
	}

	result, err := s.dispatchSvc.Dispatch(ctx, rep)
	if err != nil {
		log.Printf("dispatch error for report %d: %v", rep.ID, err)
		return
	}

	log.Printf("report %d dispatched to %d call centers", rep.ID, len(result.MatchedCallCenterIDs))
}

func (s *ReportSubscriber) handleUpdated(_ mqtt.Client, msg mqtt.Message) {
	raw, in, err := decodeReportMessage(msg.Payload())
	if err != nil {
		log.Printf("invalid updated-report message: %v", err)
		return
	}

	if raw.ReportID <= 0 {
		log.Printf("updated-report message missing report_id")
		return
	}

	ctx := context.Background()

	rep, err := s.reportSvc.Update(ctx, raw.ReportID, in)
	if err != nil {
		log.Printf("update report %d error: %v", raw.ReportID, err)
		return
	}

	result, err := s.dispatchSvc.Dispatch(ctx, rep)
	if err != nil {
		log.Printf("re-dispatch error for report %d: %v", rep.ID, err)
		return
	}

	log.Printf("report %d re-dispatched to %d call centers", rep.ID, len(result.MatchedCallCenterIDs))
}

func decodeReportMessage(payload []byte) (*reportMessage, *domain.ReportInput, error) {
	var raw reportMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, nil, err
	}

	in := &domain.ReportInput{
		ReporterID:        raw.ReporterID,
		CountryID:         raw.CountryID,
		EmergencyCatID:    raw.EmergencyCatID,
		EmergencySubCatID: raw.EmergencySubCatID,
		InvolvedID:        raw.InvolvedID,
		InvolvedAmountID:  raw.InvolvedAmountID,
	}
	if raw.Latitude != nil && raw.Longitude != nil {
		in.Location = &domain.Coordinate{Lat: *raw.Latitude, Lng: *raw.Longitude}
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	if raw.Timestamp <= 0 {
		return nil, nil, fmt.Errorf("timestamp: must be positive")
	}
	return &raw, in, nil
}
