package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"calguard/internal/classifier"
	"calguard/internal/models"
	"calguard/internal/snapshot"

	"github.com/google/uuid"
)

// CalendarAPI is the slice of the calendar client the reconciler needs.
type CalendarAPI interface {
	EventsInWindow(ctx context.Context, calendarID string, start, end time.Time) ([]*models.Event, error)
	AddGuests(ctx context.Context, calendarID string, event *models.Event, emails []string) error
}

// Config holds the per-run parameters of the reconciler.
type Config struct {
	CalendarID   string
	Targets      []string // email addresses to ensure on every matched event
	DaysBack     int
	DaysForward  int
	DryRun       bool
	SnapshotPath string // when set, matched events are written here as ICS
}

// Summary reports what a single run did.
type Summary struct {
	RunID      string
	Scanned    int
	Matched    int
	Reconciled int
	Skipped    int // matched events that already had every target address
	Failed     int
}

// Reconciler drives one fetch-classify-patch cycle over a calendar, ensuring
// the target addresses are present as guests on every matched event.
type Reconciler struct {
	logger     *slog.Logger
	client     CalendarAPI
	classifier *classifier.Classifier
	cfg        Config
}

// New creates a new Reconciler.
func New(logger *slog.Logger, client CalendarAPI, cls *classifier.Classifier, cfg Config) (*Reconciler, error) {
	if cfg.CalendarID == "" {
		return nil, fmt.Errorf("calendar ID is required")
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("at least one target address is required")
	}
	if cfg.DaysBack < 0 || cfg.DaysForward < 0 {
		return nil, fmt.Errorf("window days must not be negative")
	}

	return &Reconciler{
		logger:     logger,
		client:     client,
		classifier: cls,
		cfg:        cfg,
	}, nil
}

// Run performs a full reconciliation cycle. A fetch failure aborts the run;
// per-event patch failures are logged and counted, and the run continues.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	logger := r.logger.With("runID", summary.RunID)
	logger.Info("Starting reconciliation run.", "calendarID", r.cfg.CalendarID, "targets", r.cfg.Targets)

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -r.cfg.DaysBack)
	end := now.AddDate(0, 0, r.cfg.DaysForward)

	events, err := r.client.EventsInWindow(ctx, r.cfg.CalendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	summary.Scanned = len(events)

	var matched []*models.Event
	for _, event := range events {
		if !r.classifier.Matches(event) {
			continue
		}
		matched = append(matched, event)
		summary.Matched++

		updated, err := r.reconcileEvent(ctx, logger, event)
		switch {
		case err != nil:
			logger.Error("Failed to reconcile event", "eventID", event.ID, "title", event.Title, "error", err)
			summary.Failed++
		case updated:
			summary.Reconciled++
		default:
			summary.Skipped++
		}
	}

	if r.cfg.SnapshotPath != "" {
		if err := snapshot.WriteFile(r.cfg.SnapshotPath, matched); err != nil {
			logger.Error("Failed to write snapshot", "path", r.cfg.SnapshotPath, "error", err)
		} else {
			logger.Info("Wrote snapshot of matched events.", "path", r.cfg.SnapshotPath, "count", len(matched))
		}
	}

	logger.Info("Reconciliation run finished.",
		"scanned", summary.Scanned,
		"matched", summary.Matched,
		"reconciled", summary.Reconciled,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

// Missing returns the target addresses not yet on the event's guest list,
// in target order. Addresses compare case-insensitively.
func (r *Reconciler) Missing(event *models.Event) []string {
	var missing []string
	for _, target := range r.cfg.Targets {
		if !event.HasGuest(target) {
			missing = append(missing, target)
		}
	}
	return missing
}

// reconcileEvent issues at most one patch per event: none when every target
// address is already a guest, otherwise a single patch adding the missing ones.
func (r *Reconciler) reconcileEvent(ctx context.Context, logger *slog.Logger, event *models.Event) (bool, error) {
	missing := r.Missing(event)
	if len(missing) == 0 {
		logger.Debug("Event already has every target guest, skipping.", "eventID", event.ID, "title", event.Title)
		return false, nil
	}

	if r.cfg.DryRun {
		logger.Info("[DRY RUN] Would add guests to event", "eventID", event.ID, "title", event.Title, "emails", missing)
		return true, nil
	}

	if err := r.client.AddGuests(ctx, r.cfg.CalendarID, event, missing); err != nil {
		return false, err
	}
	return true, nil
}
