package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/browser/browsertest"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
	"github.com/adyen/shopharness/internal/wait"
)

const homeURL = "http://shop.test/"

var fastSpec = wait.Spec{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond}

// fakeLauncher hands out a fresh scripted driver per session.
type fakeLauncher struct {
	mu      sync.Mutex
	drivers []*browsertest.Driver
	fail    error
}

func (l *fakeLauncher) Launch(context.Context, browser.Options) (browser.Driver, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	d := browsertest.NewDriver(&browsertest.Page{URL: homeURL})
	d.Shot = []byte("\x89PNG")
	l.mu.Lock()
	l.drivers = append(l.drivers, d)
	l.mu.Unlock()
	return d, nil
}

func newRunner(t *testing.T, l browser.Launcher, mutate func(*Config)) *Runner {
	t.Helper()
	cfg := Config{
		Launcher: l,
		Session:  session.Config{Driver: "fake"},
		Wait:     fastSpec,
		BaseURL:  homeURL,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	return r
}

func TestNewRunner_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no launcher", cfg: Config{Wait: fastSpec, BaseURL: homeURL}},
		{name: "bad wait", cfg: Config{Launcher: &fakeLauncher{}, BaseURL: homeURL}},
		{name: "bad base url", cfg: Config{Launcher: &fakeLauncher{}, Wait: fastSpec, BaseURL: "shop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestRunner_Outcomes(t *testing.T) {
	boom := errors.New("boom")
	scenarios := []Scenario{
		{
			Name:    "passes",
			Feature: "Cart",
			Run: func(t *T) error {
				if err := t.Step("open", func(ctx context.Context) error { return t.Session.Navigate(ctx, homeURL) }); err != nil {
					return err
				}
				t.Check("Open", true)
				return t.Require(true, "never shown")
			},
		},
		{
			Name: "fails",
			Run: func(t *T) error {
				t.Check("Cart", false)
				return t.Require(false, "cart is empty")
			},
		},
		{
			Name: "errors",
			Run: func(t *T) error {
				return t.Step("explode", func(context.Context) error { return boom })
			},
		},
		{
			Name: "panics",
			Run: func(t *T) error {
				var m map[string]int
				m["x"] = 1
				return nil
			},
		},
		{Name: "empty"},
	}

	results, err := newRunner(t, &fakeLauncher{}, nil).Run(context.Background(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	assert.Equal(t, Passed, results[0].Outcome)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, []string{"open"}, results[0].Steps)
	assert.Equal(t, []string{"OpenSuccess"}, artifactNames(results[0]))
	assert.Equal(t, "Cart", results[0].Feature)

	assert.Equal(t, Failed, results[1].Outcome)
	assert.ErrorIs(t, results[1].Err, ErrAssertion)
	assert.Contains(t, results[1].Err.Error(), "cart is empty")
	assert.Equal(t, []string{"CartFail"}, artifactNames(results[1]))

	assert.Equal(t, Error, results[2].Outcome)
	assert.ErrorIs(t, results[2].Err, boom)
	assert.Equal(t, []string{"errors/explode"}, artifactNames(results[2]))

	assert.Equal(t, Error, results[3].Outcome)
	assert.ErrorIs(t, results[3].Err, ErrPanic)
	assert.Equal(t, []string{"panics/panic"}, artifactNames(results[3]))

	assert.Equal(t, Error, results[4].Outcome)

	for _, r := range results {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.Finished.Before(r.Started))
	}
	assert.Equal(t, Summary{Passed: 1, Failed: 1, Errors: 3}, Summarize(results))
}

func artifactNames(r Result) []string {
	var names []string
	for _, a := range r.Artifacts {
		names = append(names, a.Name)
	}
	return names
}

func TestRunner_LaunchFailureAbortsRun(t *testing.T) {
	var ran atomic.Int32
	l := &fakeLauncher{fail: errors.New("geckodriver not found")}
	scenarios := []Scenario{{Name: "a", Run: func(*T) error { ran.Add(1); return nil }}}

	results, err := newRunner(t, l, nil).Run(context.Background(), scenarios)

	var launchErr *session.LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "fake", launchErr.Driver)
	assert.Nil(t, results)
	assert.Zero(t, ran.Load())
}

func TestRunner_WorkersQuitTheirSessions(t *testing.T) {
	l := &fakeLauncher{}
	var mu sync.Mutex
	seen := map[string]int{}
	var scenarios []Scenario
	for i := 0; i < 6; i++ {
		scenarios = append(scenarios, Scenario{
			Name: fmt.Sprintf("scenario %d", i),
			Run: func(t *T) error {
				mu.Lock()
				seen[t.Session.ID()]++
				mu.Unlock()
				return nil
			},
		})
	}

	results, err := newRunner(t, l, func(c *Config) { c.Workers = 3 }).Run(context.Background(), scenarios)
	require.NoError(t, err)

	assert.True(t, Summarize(results).OK())
	assert.Len(t, l.drivers, 3)
	for _, d := range l.drivers {
		assert.Equal(t, 1, d.QuitCalls())
	}
	total := 0
	for _, n := range seen {
		total += n
	}
	assert.Equal(t, 6, total)
	assert.LessOrEqual(t, len(seen), 3)
}

func TestRunner_WorkersCappedByScenarios(t *testing.T) {
	l := &fakeLauncher{}
	scenarios := []Scenario{{Name: "only", Run: func(*T) error { return nil }}}

	_, err := newRunner(t, l, func(c *Config) { c.Workers = 4 }).Run(context.Background(), scenarios)

	require.NoError(t, err)
	assert.Len(t, l.drivers, 1)
}

func TestRunner_ScenarioDeadline(t *testing.T) {
	scenarios := []Scenario{
		{
			Name: "hangs",
			Run: func(t *T) error {
				<-t.Context().Done()
				return t.Context().Err()
			},
		},
		{Name: "next", Run: func(*T) error { return nil }},
	}

	results, err := newRunner(t, &fakeLauncher{}, func(c *Config) { c.Timeout = 20 * time.Millisecond }).
		Run(context.Background(), scenarios)

	require.NoError(t, err)
	assert.Equal(t, Error, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.Equal(t, Passed, results[1].Outcome)
}

func TestRunner_CancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scenarios := []Scenario{
		{Name: "a", Run: func(*T) error { return nil }},
		{Name: "b", Run: func(*T) error { return nil }},
	}

	results, _ := newRunner(t, &fakeLauncher{}, nil).Run(ctx, scenarios)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, Error, r.Outcome)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunner_WritesEvidenceAndAllure(t *testing.T) {
	artifacts, allure := t.TempDir(), t.TempDir()
	mem := &report.Memory{}
	scenarios := []Scenario{{
		Name:    "Add camera to cart",
		Feature: "Cart",
		Story:   "Camera",
		Run: func(t *T) error {
			t.Logf("adding %s", "Canon EOS 5D")
			t.Check("CameraCart", true)
			return nil
		},
	}}

	results, err := newRunner(t, &fakeLauncher{}, func(c *Config) {
		c.ArtifactDir = artifacts
		c.AllureDir = allure
		c.Sink = mem
	}).Run(context.Background(), scenarios)
	require.NoError(t, err)
	require.Equal(t, Passed, results[0].Outcome)

	_, err = os.Stat(filepath.Join(artifacts, "Add_camera_to_cart", "CameraCartSuccess.png"))
	assert.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(allure, "*-result.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, 1, mem.Count(report.InfoLevel, "adding Canon EOS 5D"))
	assert.Len(t, mem.Artifacts(), 1)
}

func TestRunner_NoScenarios(t *testing.T) {
	l := &fakeLauncher{}
	results, err := newRunner(t, l, nil).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, l.drivers)
}
