// Package scenario sequences page object operations into named end-to-end
// scenarios, captures evidence around them and classifies their outcome.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/pages"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
)

var (
	// ErrAssertion marks a scenario expectation that did not hold. Scenarios
	// ending in it are Failed; any other error is an Error.
	ErrAssertion = errors.New("assertion failed")
	// ErrPanic wraps a panic recovered from a scenario.
	ErrPanic = errors.New("scenario panicked")
)

// evidenceTimeout bounds a capture made after the scenario context is done.
const evidenceTimeout = 10 * time.Second

// Outcome is the final classification of a scenario.
type Outcome string

// Outcomes
const (
	Passed Outcome = "passed"
	Failed Outcome = "failed"
	Error  Outcome = "error"
)

// Classify maps a scenario's returned error to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Passed
	case errors.Is(err, ErrAssertion):
		return Failed
	default:
		return Error
	}
}

// Scenario is one end-to-end flow.
type Scenario struct {
	Name    string
	Feature string
	Story   string
	Run     func(t *T) error
}

// Result is the record of one scenario run.
type Result struct {
	ID        string
	Name      string
	Feature   string
	Story     string
	Outcome   Outcome
	Steps     []string
	Logs      []report.Entry
	Artifacts []report.Artifact
	Err       error
	Started   time.Time
	Finished  time.Time
}

// Duration is how long the scenario ran.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// T is handed to a running scenario. It is bound to one session and used
// from one goroutine.
type T struct {
	// Session is the browser the scenario drives.
	Session *session.Session
	// Pages are the page objects over Session.
	Pages *pages.Site

	ctx      context.Context
	scenario string
	sink     report.Sink
	logger   *zap.Logger
}

// Context carries the scenario deadline.
func (t *T) Context() context.Context { return t.ctx }

// Logger returns the scenario-scoped logger.
func (t *T) Logger() *zap.Logger { return t.logger }

// Step runs fn as a named step. When fn fails, evidence named
// "<scenario>/<step>" is captured before the error is returned.
func (t *T) Step(name string, fn func(ctx context.Context) error) error {
	t.sink.RecordStep(name)
	if err := fn(t.ctx); err != nil {
		t.Capture(t.scenario + "/" + name)
		t.sink.Log(report.ErrorLevel, fmt.Sprintf("step %q failed: %v", name, err))
		return fmt.Errorf("step %q: %w", name, err)
	}
	return nil
}

// Check records the outcome of an evaluation already made by the caller and
// captures "<name>Success" or "<name>Fail" evidence. It returns ok.
func (t *T) Check(name string, ok bool) bool {
	if ok {
		t.sink.Log(report.InfoLevel, fmt.Sprintf("check %s passed", name))
		t.Capture(name + "Success")
	} else {
		t.sink.Log(report.WarnLevel, fmt.Sprintf("check %s failed", name))
		t.Capture(name + "Fail")
	}
	return ok
}

// Capture attaches a screenshot, or the page source when the driver cannot
// render one. A failed capture is logged and otherwise ignored.
func (t *T) Capture(name string) {
	ctx := t.ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), evidenceTimeout)
		defer cancel()
	}
	a, err := t.Session.CaptureEvidence(ctx, name)
	if err != nil {
		t.sink.Log(report.WarnLevel, fmt.Sprintf("evidence %q not captured: %v", name, err))
		return
	}
	t.sink.AttachArtifact(a)
}

// Logf writes an informational line to the scenario report.
func (t *T) Logf(format string, args ...any) {
	t.sink.Log(report.InfoLevel, fmt.Sprintf(format, args...))
}

// Require returns an ErrAssertion carrying the formatted message when cond
// is false, and nil otherwise.
func (t *T) Require(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	t.sink.Log(report.ErrorLevel, msg)
	return fmt.Errorf("%w: %s", ErrAssertion, msg)
}

// Select returns the scenarios whose name or feature contains any of the
// patterns, ignoring case. No patterns selects everything.
func Select(all []Scenario, patterns ...string) []Scenario {
	var want []string
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			want = append(want, p)
		}
	}
	if len(want) == 0 {
		return all
	}

	var out []Scenario
	for _, sc := range all {
		name, feature := strings.ToLower(sc.Name), strings.ToLower(sc.Feature)
		for _, p := range want {
			if strings.Contains(name, p) || strings.Contains(feature, p) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

// Summary counts results by outcome.
type Summary struct {
	Passed int
	Failed int
	Errors int
}

// Summarize counts results by outcome.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case Passed:
			s.Passed++
		case Failed:
			s.Failed++
		default:
			s.Errors++
		}
	}
	return s
}

// OK reports whether every scenario passed.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d errors", s.Passed, s.Failed, s.Errors)
}
