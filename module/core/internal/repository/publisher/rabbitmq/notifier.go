package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/publisher"
)

var _ publisher.ReportNotifier = (*ReportNotifier)(nil)

const (
	exchangeName = "dispatch.events"

	// Routing keys: one per call center for targeted notifications, one
	// shared key for the report-changed broadcast.
	broadcastKey = "report.changed"
)

func centerKey(callCenterID int64) string {
	return fmt.Sprintf("center.%d", callCenterID)
}

type ReportNotifier struct {
	ch *amqp.Channel
}

func NewReportNotifier(conn *amqp.Connection) (*ReportNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &ReportNotifier{ch: ch}, nil
}

func (n *ReportNotifier) NotifyCenter(ctx context.Context, notif *domain.CenterNotification) error {
	if notif.EventID == "" {
		notif.EventID = uuid.NewString()
	}

	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return n.ch.PublishWithContext(ctx, exchangeName, centerKey(notif.CallCenterID), false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   notif.EventID,
		Body:        body,
	})
}

type reportChangedMessage struct {
	EventID  string                   `json:"event_id"`
	Event    domain.NotificationEvent `json:"event"`
	ReportID int64                    `json:"report_id"`
}

func (n *ReportNotifier) BroadcastReportChanged(ctx context.Context, reportID int64) error {
	msg := reportChangedMessage{
		EventID:  uuid.NewString(),
		Event:    domain.EventReportChanged,
		ReportID: reportID,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}

	return n.ch.PublishWithContext(ctx, exchangeName, broadcastKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msg.EventID,
		Body:        body,
	})
}
