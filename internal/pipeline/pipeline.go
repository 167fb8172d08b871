package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/checks"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/observability"
	"github.com/couchcryptid/covid-data-qc/internal/resultlog"
)

// progressEvery controls how often a pass logs the number of states checked.
const progressEvery = 10

// publishHour is the hour, US/Eastern, published values are stamped with.
const publishHour = 17

// ErrUnknownView is returned by Run for a view name no pass handles.
var ErrUnknownView = errors.New("unknown view")

// Source supplies the three views. A view that does not exist returns
// domain.ErrViewUnavailable.
type Source interface {
	Working(ctx context.Context) ([]domain.Observation, error)
	Current(ctx context.Context) ([]domain.Observation, error)
	History(ctx context.Context) ([]domain.Observation, error)
}

// Outcome is the result of one check pass.
type Outcome struct {
	View       domain.View        `json:"view"`
	TargetDate time.Time          `json:"target_date"`
	Phase      domain.Phase       `json:"phase"`
	Report     resultlog.Report   `json:"report"`
	Fits       []domain.FitResult `json:"-"`
}

// Options tunes a Runner.
type Options struct {
	Thresholds checks.Thresholds
	// PublishDate pins the current view's publish date (YYYYMMDD). Zero
	// derives it from the rows' last update times.
	PublishDate int

	// WorkingRules and CurrentRules replace the default row rules when set.
	WorkingRules []checks.Check
	CurrentRules []checks.Check
}

// Runner executes check passes against a Source. Passes are sequential;
// a Runner may be reused across passes.
type Runner struct {
	source  Source
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Runner reading from source.
func New(source Source, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if opts.WorkingRules == nil {
		opts.WorkingRules = checks.WorkingChecks()
	}
	if opts.CurrentRules == nil {
		opts.CurrentRules = checks.CurrentChecks()
	}
	return &Runner{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a pass has completed, or an error
// describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no check pass has completed yet")
	}
	return nil
}

// Run dispatches to the pass for view.
func (r *Runner) Run(ctx context.Context, view domain.View) (*Outcome, error) {
	switch view {
	case domain.ViewWorking:
		return r.CheckWorking(ctx)
	case domain.ViewCurrent:
		return r.CheckCurrent(ctx)
	case domain.ViewHistory:
		return r.CheckHistory(ctx)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownView, view)
	}
}

// CheckWorking checks the in-progress dev sheet. Before the morning cutoff
// the previous day's figures are under review. Returns a nil Outcome when
// the working view is unavailable.
func (r *Runner) CheckWorking(ctx context.Context) (*Outcome, error) {
	start := domain.Clock().Now()
	rows, ok, err := r.load(ctx, domain.ViewWorking, r.source.Working)
	if !ok || err != nil {
		return nil, err
	}
	series, log, err := r.loadHistory(ctx)
	if err != nil {
		return nil, err
	}

	now := domain.NowEastern()
	env := checks.Env{
		Now:        now,
		Target:     workingTarget(now, r.opts.Thresholds.MorningCutoffHour),
		Phase:      domain.PhaseWorking,
		Thresholds: r.opts.Thresholds,
	}
	r.logger.Info("checking working values", "target_date", domain.DateKey(env.Target), "states", len(rows))

	var fits []domain.FitResult
	for i, obs := range rows {
		fit := r.checkRow(log, domain.ViewWorking, obs, env.ForState(series[obs.State]), r.opts.WorkingRules)
		if fit != nil {
			fits = append(fits, *fit)
		}
		r.progress(domain.ViewWorking, i, len(rows))
	}
	return r.finish(domain.ViewWorking, env, log, fits, start), nil
}

// CheckCurrent checks the published values. Each row's last check time is
// the publish timestamp. Returns a nil Outcome when the current view is
// unavailable.
func (r *Runner) CheckCurrent(ctx context.Context) (*Outcome, error) {
	start := domain.Clock().Now()
	rows, ok, err := r.load(ctx, domain.ViewCurrent, r.source.Current)
	if !ok || err != nil {
		return nil, err
	}
	series, log, err := r.loadHistory(ctx)
	if err != nil {
		return nil, err
	}

	published := publishTime(rows, r.opts.PublishDate)
	env := checks.Env{
		Now:        domain.NowEastern(),
		Target:     domain.StartOfDay(published),
		Phase:      domain.PhasePublish,
		Thresholds: r.opts.Thresholds,
	}
	r.logger.Info("checking published values", "target_date", domain.DateKey(env.Target), "states", len(rows))

	var fits []domain.FitResult
	for i, obs := range rows {
		obs.LastCheck = published
		fit := r.checkRow(log, domain.ViewCurrent, obs, env.ForState(series[obs.State]), r.opts.CurrentRules)
		if fit != nil {
			fits = append(fits, *fit)
		}
		r.progress(domain.ViewCurrent, i, len(rows))
	}
	return r.finish(domain.ViewCurrent, env, log, fits, start), nil
}

// CheckHistory checks every state's series for decreasing cumulative
// counts. Returns a nil Outcome when the history view is unavailable.
func (r *Runner) CheckHistory(ctx context.Context) (*Outcome, error) {
	start := domain.Clock().Now()
	rows, ok, err := r.load(ctx, domain.ViewHistory, r.source.History)
	if !ok || err != nil {
		return nil, err
	}

	log := resultlog.New()
	states, byState := domain.GroupByState(rows)
	var latest time.Time
	for i, state := range states {
		for _, o := range byState[state] {
			if o.Date.After(latest) {
				latest = o.Date
			}
		}
		series, err := domain.NewHistorySeries(state, byState[state])
		if err != nil {
			r.fault(log, state, checks.NameMonotonic, err)
			continue
		}
		r.guard(log, state, checks.NameMonotonic, func() error {
			log.Add(checks.Monotonic(series)...)
			return nil
		})
		r.metrics.StatesChecked.WithLabelValues(string(domain.ViewHistory)).Inc()
		r.progress(domain.ViewHistory, i, len(states))
	}

	env := checks.Env{Target: latest, Phase: domain.PhasePublish}
	return r.finish(domain.ViewHistory, env, log, nil, start), nil
}

// checkRow runs the row rules, then the history comparison, then the trend
// forecast when the positive count moved.
func (r *Runner) checkRow(log *resultlog.Log, view domain.View, obs domain.Observation, env checks.Env, rules []checks.Check) *domain.FitResult {
	for _, c := range rules {
		r.guard(log, obs.State, c.Name, func() error {
			fs, err := c.Run(obs, env)
			log.Add(fs...)
			return err
		})
	}

	var changed bool
	r.guard(log, obs.State, checks.NameIncreasingValues, func() error {
		fs, ch := checks.IncreasingValues(obs, env)
		log.Add(fs...)
		changed = ch
		return nil
	})

	var fit *domain.FitResult
	if changed {
		r.guard(log, obs.State, checks.NameExpectedPositive, func() error {
			fs, f, err := checks.ExpectedPositiveIncrease(obs, env)
			if err != nil {
				return err
			}
			if f == nil {
				r.metrics.ForecastSkipped.Inc()
			}
			log.Add(fs...)
			fit = f
			return nil
		})
	}

	r.metrics.StatesChecked.WithLabelValues(string(view)).Inc()
	return fit
}

// guard runs fn for one check on one state. A returned error or a panic is
// recorded as an internal finding and the pass continues.
func (r *Runner) guard(log *resultlog.Log, state, check string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.fault(log, state, check, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := fn(); err != nil {
		r.fault(log, state, check, err)
	}
}

func (r *Runner) fault(log *resultlog.Log, state, check string, err error) {
	r.logger.Warn("check failed", "state", state, "check", check, "error", err)
	r.metrics.CheckFaults.WithLabelValues(check).Inc()
	log.Internal(state, check, "check failed: %v", err)
}

// load fetches one view. ok is false when the view is unavailable.
func (r *Runner) load(ctx context.Context, view domain.View, fetch func(context.Context) ([]domain.Observation, error)) ([]domain.Observation, bool, error) {
	rows, err := fetch(ctx)
	if errors.Is(err, domain.ErrViewUnavailable) {
		r.logger.Info("view unavailable, skipping", "view", view)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", view, err)
	}
	return rows, true, nil
}

// loadHistory builds per-state series for the row passes. A state whose
// history is malformed gets an internal finding and is checked without
// history. An unavailable history view leaves every state without history.
func (r *Runner) loadHistory(ctx context.Context) (map[string]domain.HistorySeries, *resultlog.Log, error) {
	log := resultlog.New()
	rows, ok, err := r.load(ctx, domain.ViewHistory, r.source.History)
	if err != nil {
		return nil, nil, err
	}
	series := make(map[string]domain.HistorySeries)
	if !ok {
		return series, log, nil
	}
	states, byState := domain.GroupByState(rows)
	for _, state := range states {
		s, err := domain.NewHistorySeries(state, byState[state])
		if err != nil {
			r.fault(log, state, "history", err)
			continue
		}
		series[state] = s
	}
	return series, log, nil
}

func (r *Runner) progress(view domain.View, i, total int) {
	if (i+1)%progressEvery == 0 {
		r.logger.Info("check progress", "view", view, "checked", i+1, "total", total)
	}
}

func (r *Runner) finish(view domain.View, env checks.Env, log *resultlog.Log, fits []domain.FitResult, start time.Time) *Outcome {
	report := log.Consolidate()
	for sev, n := range report.Counts {
		r.metrics.Findings.WithLabelValues(string(view), string(sev)).Add(float64(n))
	}
	end := domain.Clock().Now()
	r.metrics.PassDuration.WithLabelValues(string(view)).Observe(end.Sub(start).Seconds())
	r.metrics.LastPass.WithLabelValues(string(view)).Set(float64(end.Unix()))
	r.ready.Store(true)

	r.logger.Info("check pass complete",
		"view", view,
		"target_date", domain.DateKey(env.Target),
		"findings", report.Total(),
		"summary", report.Summary(),
	)
	return &Outcome{
		View:       view,
		TargetDate: env.Target,
		Phase:      env.Phase,
		Report:     report,
		Fits:       fits,
	}
}

// workingTarget is today, or yesterday before the morning cutoff.
func workingTarget(now time.Time, cutoffHour int) time.Time {
	day := domain.StartOfDay(now)
	if now.In(domain.Eastern()).Hour() < cutoffHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// publishTime is the pinned publish date, else the latest last-update day
// among rows, stamped at the publish hour.
func publishTime(rows []domain.Observation, pinned int) time.Time {
	var day time.Time
	if pinned != 0 {
		day = domain.DateFromKey(pinned)
	} else {
		for _, o := range rows {
			if o.LastUpdate.After(day) {
				day = o.LastUpdate
			}
		}
		if day.IsZero() {
			day = domain.NowEastern()
		}
	}
	d := day.In(domain.Eastern())
	return time.Date(d.Year(), d.Month(), d.Day(), publishHour, 0, 0, 0, domain.Eastern())
}
