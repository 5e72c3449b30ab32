package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"sjsage522/makkaratutka/internal/crawler"
	"sjsage522/makkaratutka/internal/menu"
	"sjsage522/makkaratutka/logger"
	apperrors "sjsage522/makkaratutka/pkg/errors"
	"sjsage522/makkaratutka/services/publisher"
)

const (
	// ReportKey is the stream field reports are published under
	ReportKey = "b64_report"

	// ScheduleTimezone is the zone cron schedules are interpreted in
	ScheduleTimezone = "Europe/Helsinki"

	defaultRetryDelay = 2 * time.Second
)

// Settings describe one search
type Settings struct {
	Mode              menu.Mode
	City              string
	UserLocation      *menu.Coordinates
	MaxSearchRadiusKm float64
	Locale            string
	// DayHashes are the listing's day filter fragments, searched in order
	DayHashes []string
}

// Report is the published outcome of a search
type Report struct {
	Mode        menu.Mode            `json:"mode"`
	City        string               `json:"city"`
	RadiusKm    float64              `json:"radius_km"`
	GeneratedAt time.Time            `json:"generated_at"`
	Results     []menu.SausageResult `json:"results"`
}

// Worker runs searches and publishes their reports
type Worker struct {
	ctx        context.Context
	provider   crawler.DocumentProvider
	analyzer   *menu.Analyzer
	publisher  publisher.Publisher
	settings   Settings
	now        menu.Clock
	location   *time.Location
	retryDelay time.Duration
	log        *logger.Logger
}

// NewWorker creates a new worker. pub may be nil when reports are only
// returned to the caller.
func NewWorker(
	ctx context.Context,
	provider crawler.DocumentProvider,
	analyzer *menu.Analyzer,
	pub publisher.Publisher,
	settings Settings,
) *Worker {
	w := &Worker{
		ctx:        ctx,
		provider:   provider,
		analyzer:   analyzer,
		publisher:  pub,
		settings:   settings,
		now:        time.Now,
		location:   scheduleLocation(),
		retryDelay: defaultRetryDelay,
		log: logger.ForWorker().WithFields(logger.Fields{
			"provider": provider.GetName(),
			"mode":     string(settings.Mode),
		}),
	}
	w.log.Info().
		Bool("day_filter", provider.AppliesDayFilter()).
		Str("city", settings.City).
		Msg("Worker created")
	return w
}

// scheduleLocation returns Helsinki time, the local zone if it is unknown
func scheduleLocation() *time.Location {
	loc, err := time.LoadLocation(ScheduleTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SetClock replaces the clock used for the weekday and report timestamps
func (w *Worker) SetClock(now menu.Clock) {
	if now != nil {
		w.now = now
	}
}

// Run performs one search in the configured mode
func (w *Worker) Run() (*Report, error) {
	switch w.settings.Mode {
	case menu.ModeWeekDay:
		return w.SearchWeek()
	case menu.ModeToday, "":
		return w.SearchToday()
	default:
		return nil, apperrors.NewValidation("worker", fmt.Sprintf("unknown search mode %q", w.settings.Mode))
	}
}

// SearchToday analyzes the listing's default view
func (w *Worker) SearchToday() (*Report, error) {
	start := w.now()
	actx := w.analysisContext(menu.ModeToday)

	doc, err := w.provider.FetchDocument(w.ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	results, err := w.analyzer.Analyze(w.ctx, doc, actx)
	if err != nil {
		return nil, fmt.Errorf("analyze listing: %w", err)
	}

	w.log.Info().
		Str("today", actx.TodayLabel).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Today search finished")

	return w.report(menu.ModeToday, results), nil
}

// SearchWeek analyzes every configured day and merges the results. A day
// that fails contributes nothing; the search fails only when every day it
// reached did. A rate limit ends the week early.
func (w *Worker) SearchWeek() (*Report, error) {
	start := w.now()
	actx := w.analysisContext(menu.ModeWeekDay)

	hashes := w.settings.DayHashes
	if !w.provider.AppliesDayFilter() {
		w.log.Warn().
			Str("provider", w.provider.GetName()).
			Msg("Provider cannot filter by day, analyzing the default view once")
		hashes = []string{""}
	}
	agg := menu.NewWeekAggregator(len(hashes))

	var searched, failed int
	var lastErr error
	for _, hash := range hashes {
		if err := w.ctx.Err(); err != nil {
			return nil, err
		}

		searched++
		results, err := w.searchDayWithRetry(hash, actx)
		if err != nil {
			failed++
			lastErr = err
			if apperrors.IsRateLimit(err) {
				w.log.Warn().Err(err).Str("day", hash).Msg("Rate limited, skipping the remaining days")
				break
			}
			w.log.Warn().Err(err).Str("day", hash).Msg("Day search failed, continuing with no results")
			results = nil
		}

		if err := agg.AddDayResults(results); err != nil {
			return nil, err
		}
	}

	if searched > 0 && failed == searched {
		return nil, fmt.Errorf("all %d day searches failed: %w", failed, lastErr)
	}
	if !agg.IsComplete() {
		w.log.Warn().
			Int("processed", agg.DaysProcessed()).
			Msg("Week incomplete, finalizing what was collected")
	}

	results, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	w.log.Info().
		Int("days", agg.DaysProcessed()).
		Int("failed_days", failed).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Week search finished")

	return w.report(menu.ModeWeekDay, results), nil
}

// searchDayWithRetry repeats a day search once after a retryable failure
func (w *Worker) searchDayWithRetry(hash string, actx menu.AnalysisContext) ([]menu.SausageResult, error) {
	results, err := w.searchDay(hash, actx)
	if err == nil || !apperrors.IsRetryable(err) {
		return results, err
	}

	w.log.Debug().Err(err).Str("day", hash).Dur("delay", w.retryDelay).Msg("Retrying day search")
	timer := time.NewTimer(w.retryDelay)
	defer timer.Stop()
	select {
	case <-w.ctx.Done():
		return nil, w.ctx.Err()
	case <-timer.C:
	}
	return w.searchDay(hash, actx)
}

func (w *Worker) searchDay(hash string, actx menu.AnalysisContext) ([]menu.SausageResult, error) {
	doc, err := w.provider.FetchDocument(w.ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch day %s: %w", hash, err)
	}
	results, err := w.analyzer.Analyze(w.ctx, doc, actx)
	if err != nil {
		return nil, fmt.Errorf("analyze day %s: %w", hash, err)
	}
	w.log.Debug().Str("day", hash).Int("results", len(results)).Msg("Day analyzed")
	return results, nil
}

// Publish sends report to the publisher, if any
func (w *Worker) Publish(report *Report) error {
	if w.publisher == nil || report == nil {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return apperrors.NewPublisher("worker", "marshal report", err)
	}
	if err := w.publisher.Publish(ReportKey, data); err != nil {
		return err
	}

	w.log.Info().Str("mode", string(report.Mode)).Int("results", len(report.Results)).Msg("Report published")
	return nil
}

// RunAndPublish performs one search and publishes its report
func (w *Worker) RunAndPublish() (*Report, error) {
	report, err := w.Run()
	if err != nil {
		return nil, err
	}
	if err := w.Publish(report); err != nil {
		w.log.Error().Err(err).Msg("Failed to publish report")
	}
	return report, nil
}

// Start runs the configured search on schedule, a standard five field cron
// expression in Helsinki time, until the worker's context is cancelled.
func (w *Worker) Start(schedule string) error {
	c := cron.New(
		cron.WithLocation(w.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, w.scheduledRun); err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("invalid schedule %q", schedule), err)
	}

	w.log.Info().Str("schedule", schedule).Str("timezone", ScheduleTimezone).Msg("Worker scheduled")
	c.Start()

	<-w.ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()

	w.log.Info().Msg("Worker stopped")
	return nil
}

func (w *Worker) scheduledRun() {
	report, err := w.RunAndPublish()
	if err != nil {
		w.log.Error().Err(err).Msg("Scheduled search failed")
		return
	}
	w.log.Info().Int("results", len(report.Results)).Msg("Scheduled search done")
}

func (w *Worker) analysisContext(mode menu.Mode) menu.AnalysisContext {
	return menu.AnalysisContext{
		Mode:              mode,
		TodayLabel:        menu.ResolveTodayLabel(w.settings.Locale, w.localNow),
		UserLocation:      w.settings.UserLocation,
		CityLabel:         w.settings.City,
		MaxSearchRadiusKm: w.settings.MaxSearchRadiusKm,
	}
}

// localNow is the worker clock in the schedule timezone, where the
// listing's weekdays are defined
func (w *Worker) localNow() time.Time {
	return w.now().In(w.location)
}

func (w *Worker) report(mode menu.Mode, results []menu.SausageResult) *Report {
	if results == nil {
		results = []menu.SausageResult{}
	}
	return &Report{
		Mode:        mode,
		City:        w.settings.City,
		RadiusKm:    w.settings.MaxSearchRadiusKm,
		GeneratedAt: w.now().UTC(),
		Results:     results,
	}
}
