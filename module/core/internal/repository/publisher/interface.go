package publisher

import (
	"context"

	"github.com/sayvu/dispatch/module/core/domain"
)

// ReportNotifier delivers dispatch signals to call centers. Delivery is
// best-effort; the dispatch engine never depends on it succeeding.
type ReportNotifier interface {
	NotifyCenter(ctx context.Context, n *domain.CenterNotification) error
	BroadcastReportChanged(ctx context.Context, reportID int64) error
}
