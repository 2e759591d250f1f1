package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/pages"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
	"github.com/adyen/shopharness/internal/wait"
)

// Config configures a Runner.
type Config struct {
	Launcher browser.Launcher
	Session  session.Config
	Wait     wait.Spec
	BaseURL  string
	// Timeout bounds each scenario. Zero means no deadline.
	Timeout time.Duration
	// Workers is the number of sessions run in parallel. Values below one
	// mean one.
	Workers int
	// ArtifactDir receives evidence files when set.
	ArtifactDir string
	// AllureDir receives allure result files when set.
	AllureDir string
	// Sink receives every scenario's report in addition to the result.
	Sink report.Sink
}

// Runner runs scenarios over a pool of sessions.
type Runner struct {
	cfg    Config
	routes pages.Routes
	logger *zap.Logger
}

// NewRunner validates cfg.
func NewRunner(cfg Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Launcher == nil {
		return nil, errors.New("runner needs a launcher")
	}
	if err := cfg.Wait.Validate(); err != nil {
		return nil, err
	}
	routes, err := pages.NewRoutes(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{cfg: cfg, routes: routes, logger: logger}, nil
}

// Run executes scenarios and returns one result per scenario, in order.
// Every session is started before the first scenario begins; a launch
// failure aborts the run with the *session.LaunchError. The returned error
// is otherwise only set when ctx ends before all scenarios ran.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, len(scenarios))
	if len(scenarios) == 0 {
		return results, nil
	}

	sessions, err := r.startSessions(ctx, min(r.cfg.Workers, len(scenarios)))
	if err != nil {
		return nil, err
	}

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range scenarios {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for _, s := range sessions {
		g.Go(func() error {
			defer r.quit(s)
			for i := range jobs {
				results[i] = r.runOne(gctx, s, scenarios[i])
			}
			return nil
		})
	}
	runErr := g.Wait()

	for i, res := range results {
		if res.ID == "" {
			results[i] = notRun(scenarios[i], runErr)
		}
	}
	if runErr != nil {
		return results, fmt.Errorf("run interrupted: %w", runErr)
	}
	return results, nil
}

func (r *Runner) startSessions(ctx context.Context, n int) ([]*session.Session, error) {
	sessions := make([]*session.Session, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range sessions {
		g.Go(func() error {
			s, err := session.Start(gctx, r.cfg.Session, r.cfg.Launcher, r.logger.With(zap.Int("worker", i)))
			if err != nil {
				return err
			}
			sessions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range sessions {
			if s != nil {
				r.quit(s)
			}
		}
		r.logger.Error("failed to start browser sessions", zap.Error(err))
		return nil, err
	}
	r.logger.Info("browser sessions started", zap.Int("workers", n))
	return sessions, nil
}

func (r *Runner) quit(s *session.Session) {
	if err := s.Quit(); err != nil {
		r.logger.Warn("failed to quit browser", zap.String("session", s.ID()), zap.Error(err))
	}
}

func (r *Runner) runOne(ctx context.Context, s *session.Session, sc Scenario) Result {
	res := Result{
		ID:      uuid.NewString(),
		Name:    sc.Name,
		Feature: sc.Feature,
		Story:   sc.Story,
		Started: time.Now(),
	}
	log := r.logger.With(
		zap.String("scenario", sc.Name),
		zap.String("result_id", res.ID),
		zap.String("session", s.ID()),
	)

	mem := &report.Memory{}
	sinks := []report.Sink{mem, report.LogSink{Logger: log}}
	if r.cfg.Sink != nil {
		sinks = append(sinks, r.cfg.Sink)
	}
	if r.cfg.ArtifactDir != "" {
		sinks = append(sinks, report.FileSink{Dir: r.cfg.ArtifactDir, Scenario: sc.Name, Logger: log})
	}
	var allure *report.AllureResult
	if r.cfg.AllureDir != "" {
		allure = report.NewAllureResult(r.cfg.AllureDir, sc.Name, sc.Feature, sc.Story)
		sinks = append(sinks, allure)
	}
	sink := report.Multi(sinks...)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	log.Info("scenario started")
	res.Err = r.execute(ctx, s, sc, sink, log)
	res.Outcome = Classify(res.Err)
	res.Finished = time.Now()
	res.Steps = mem.Steps()
	res.Logs = mem.Entries()
	res.Artifacts = mem.Artifacts()

	if allure != nil {
		if err := allure.Write(allureStatus(res.Outcome), res.Err); err != nil {
			log.Warn("failed to write allure result", zap.Error(err))
		}
	}
	fields := []zap.Field{zap.String("outcome", string(res.Outcome)), zap.Duration("duration", res.Duration())}
	if res.Err != nil {
		log.Error("scenario finished", append(fields, zap.Error(res.Err))...)
	} else {
		log.Info("scenario finished", fields...)
	}
	return res
}

func (r *Runner) execute(ctx context.Context, s *session.Session, sc Scenario, sink report.Sink, log *zap.Logger) (err error) {
	if sc.Run == nil {
		return errors.New("scenario has no body")
	}
	page, err := pages.NewPage(s, r.cfg.Wait, r.routes, sink)
	if err != nil {
		return err
	}
	t := &T{
		Session:  s,
		Pages:    pages.NewSite(page),
		ctx:      ctx,
		scenario: sc.Name,
		sink:     sink,
		logger:   log,
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("scenario panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			t.Capture(sc.Name + "/panic")
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return sc.Run(t)
}

func notRun(sc Scenario, cause error) Result {
	if cause == nil {
		cause = errors.New("scenario was not run")
	}
	now := time.Now()
	return Result{
		ID:       uuid.NewString(),
		Name:     sc.Name,
		Feature:  sc.Feature,
		Story:    sc.Story,
		Outcome:  Error,
		Err:      fmt.Errorf("not run: %w", cause),
		Started:  now,
		Finished: now,
	}
}

func allureStatus(o Outcome) string {
	switch o {
	case Passed:
		return report.AllurePassed
	case Failed:
		return report.AllureFailed
	default:
		return report.AllureBroken
	}
}
