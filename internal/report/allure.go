package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Allure status values
const (
	AllurePassed = "passed"
	AllureFailed = "failed"
	AllureBroken = "broken"
)

// AllureResult accumulates one scenario in the allure-results layout and
// implements Sink. Write emits <uuid>-result.json plus one attachment file
// per artifact into Dir.
type AllureResult struct {
	Dir string

	mu     sync.Mutex
	result allureResult
}

type allureResult struct {
	UUID        string             `json:"uuid"`
	HistoryID   string             `json:"historyId"`
	Name        string             `json:"name"`
	FullName    string             `json:"fullName"`
	Status      string             `json:"status"`
	Stage       string             `json:"stage"`
	Details     *allureDetails     `json:"statusDetails,omitempty"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Labels      []allureLabel      `json:"labels"`
	Steps       []allureStep       `json:"steps"`
	Attachments []allureAttachment `json:"attachments"`
}

type allureDetails struct {
	Message string `json:"message"`
}

type allureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Start  int64  `json:"start"`
	Stop   int64  `json:"stop"`
}

type allureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// NewAllureResult starts a result for a scenario.
func NewAllureResult(dir, name, feature, story string) *AllureResult {
	labels := []allureLabel{{Name: "framework", Value: "shopharness"}}
	if feature != "" {
		labels = append(labels, allureLabel{Name: "feature", Value: feature})
	}
	if story != "" {
		labels = append(labels, allureLabel{Name: "story", Value: story})
	}
	return &AllureResult{
		Dir: dir,
		result: allureResult{
			UUID:      uuid.NewString(),
			HistoryID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(feature+"/"+name)).String(),
			Name:      name,
			FullName:  feature + ": " + name,
			Stage:     "running",
			Start:     time.Now().UnixMilli(),
			Labels:    labels,
		},
	}
}

func (r *AllureResult) RecordStep(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UnixMilli()
	r.closeStepLocked(now)
	r.result.Steps = append(r.result.Steps, allureStep{
		Name:   name,
		Status: AllurePassed,
		Stage:  "running",
		Start:  now,
	})
}

func (r *AllureResult) closeStepLocked(now int64) {
	if n := len(r.result.Steps); n > 0 && r.result.Steps[n-1].Stage == "running" {
		r.result.Steps[n-1].Stage = "finished"
		r.result.Steps[n-1].Stop = now
	}
}

func (r *AllureResult) AttachArtifact(a Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source := uuid.NewString() + "-attachment" + a.Ext()
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(r.Dir, source), a.Data, 0o644); err != nil {
		return
	}
	r.result.Attachments = append(r.result.Attachments, allureAttachment{
		Name:   a.Name,
		Source: source,
		Type:   a.ContentType(),
	})
}

func (r *AllureResult) Log(Level, string) {}

// Write finalizes the result with status and writes it to Dir. A non-nil
// cause marks the last step with the same status.
func (r *AllureResult) Write(status string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UnixMilli()
	r.closeStepLocked(now)
	if cause != nil {
		r.result.Details = &allureDetails{Message: cause.Error()}
		if n := len(r.result.Steps); n > 0 {
			r.result.Steps[n-1].Status = status
		}
	}
	r.result.Status = status
	r.result.Stage = "finished"
	r.result.Stop = now

	data, err := json.MarshalIndent(r.result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode allure result: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create allure directory: %w", err)
	}
	path := filepath.Join(r.Dir, r.result.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write allure result: %w", err)
	}
	return nil
}
