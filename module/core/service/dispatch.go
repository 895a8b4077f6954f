package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/geo"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
	"github.com/sayvu/dispatch/module/core/internal/repository/publisher"
)

// Catalog supplies the call centers a report is evaluated against.
type Catalog interface {
	ActiveCallCenters(ctx context.Context, countryID int64) ([]domain.CallCenter, error)
}

// DispatchEngine decides which call centers are responsible for a report,
// records the relation and signals the matched centers.
type DispatchEngine struct {
	catalog  Catalog
	reports  database.ReportRepository
	notifier publisher.ReportNotifier
	log      logrus.FieldLogger
}

func NewDispatchEngine(catalog Catalog, reports database.ReportRepository, notifier publisher.ReportNotifier, log logrus.FieldLogger) *DispatchEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DispatchEngine{catalog: catalog, reports: reports, notifier: notifier, log: log}
}

// Dispatch evaluates every call center concurrently, waits for all of them,
// reconciles the relation table and fans out notifications. A single
// center's evaluation failure is absorbed as "no match" so one bad polygon
// cannot sink the whole dispatch; the absorption is logged.
func (e *DispatchEngine) Dispatch(ctx context.Context, rep *domain.Report) (domain.DispatchResult, error) {
	centers, err := e.catalog.ActiveCallCenters(ctx, rep.CountryID)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("load call center catalog: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matched []int64
	)

	for i := range centers {
		cc := centers[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			ok, err := evaluateCenter(&cc, rep)
			if err != nil {
				e.log.WithFields(logrus.Fields{
					"report_id":      rep.ID,
					"call_center_id": cc.ID,
				}).WithError(err).Warn("call center evaluation failed, treating as no match")
				return
			}
			if ok {
				mu.Lock()
				matched = append(matched, cc.ID)
				mu.Unlock()
			}
		}()
	}

	// The gather step fires exactly once, after every center has resolved;
	// errored evaluations count toward completion too.
	wg.Wait()
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })

	previous, err := e.reports.FindMatches(ctx, rep.ID)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("load existing matches: %w", err)
	}

	if err := e.reconcile(ctx, rep.ID, previous, matched); err != nil {
		return domain.DispatchResult{}, err
	}

	// Only centers gaining the report get the targeted filed event; centers
	// already tracking it hear the report-changed broadcast instead.
	prevSet := make(map[int64]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}
	for _, ccID := range matched {
		if prevSet[ccID] {
			continue
		}
		notif := &domain.CenterNotification{
			Event:          domain.EventReportFiled,
			ReportID:       rep.ID,
			CallCenterID:   ccID,
			EmergencyCatID: rep.EmergencyCatID,
			Location:       rep.Location,
		}
		if err := e.notifier.NotifyCenter(ctx, notif); err != nil {
			e.log.WithFields(logrus.Fields{
				"report_id":      rep.ID,
				"call_center_id": ccID,
			}).WithError(err).Warn("notification delivery failed")
		}
	}

	// Centers that were already tracking the report need to hear about the
	// change even when they are not in the fresh match set.
	if len(matched) > 0 || len(previous) > 0 {
		if err := e.notifier.BroadcastReportChanged(ctx, rep.ID); err != nil {
			e.log.WithField("report_id", rep.ID).WithError(err).Warn("report-changed broadcast failed")
		}
	}

	if len(matched) == 0 {
		e.log.WithField("report_id", rep.ID).Warn("no call center matched report")
	}

	return domain.DispatchResult{
		MatchedCallCenterIDs: matched,
		AnyMatch:             len(matched) > 0,
	}, nil
}

// reconcile makes the relation table reflect the newest computation: fresh
// matches are inserted, centers that no longer match are removed.
func (e *DispatchEngine) reconcile(ctx context.Context, reportID int64, previous, matched []int64) error {
	prevSet := make(map[int64]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}
	matchSet := make(map[int64]bool, len(matched))
	for _, id := range matched {
		matchSet[id] = true
	}

	for _, id := range matched {
		if !prevSet[id] {
			if err := e.reports.SaveMatch(ctx, reportID, id); err != nil {
				return fmt.Errorf("save match for call center %d: %w", id, err)
			}
		}
	}
	for _, id := range previous {
		if !matchSet[id] {
			if err := e.reports.DeleteMatch(ctx, reportID, id); err != nil {
				return fmt.Errorf("delete stale match for call center %d: %w", id, err)
			}
		}
	}
	return nil
}

// evaluateCenter applies the two-stage check: category membership first,
// then the center's areas in ascending priority order. The first containing
// area wins and lower-priority areas are never tested, which is also the
// tie-break when overlapping areas of one center contain the point.
func evaluateCenter(cc *domain.CallCenter, rep *domain.Report) (bool, error) {
	if !cc.SupportsCategory(rep.EmergencyCatID) {
		return false, nil
	}

	for i := range cc.Areas {
		inside, err := geo.PointInPolygon(rep.Location, cc.Areas[i].Polygon)
		if err != nil {
			return false, err
		}
		if inside {
			return true, nil
		}
	}
	return false, nil
}
