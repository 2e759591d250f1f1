// Package report carries evidence and log lines from scenarios to whatever
// reporting backend a run is configured with.
package report

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ArtifactKind identifies how artifact bytes should be interpreted.
type ArtifactKind string

// Artifact kinds
const (
	Screenshot ArtifactKind = "screenshot"
	PageSource ArtifactKind = "page-source"
)

// Artifact is a piece of captured evidence. The harness hands it to a Sink
// and keeps no copy.
type Artifact struct {
	Name string
	Kind ArtifactKind
	Data []byte
}

// Ext returns the file extension matching the artifact kind.
func (a Artifact) Ext() string {
	if a.Kind == PageSource {
		return ".html"
	}
	return ".png"
}

// ContentType returns the MIME type matching the artifact kind.
func (a Artifact) ContentType() string {
	if a.Kind == PageSource {
		return "text/html"
	}
	return "image/png"
}

// Level is a log severity.
type Level = zapcore.Level

// Levels
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Sink receives step markers, artifacts and log lines for one scenario.
type Sink interface {
	RecordStep(name string)
	AttachArtifact(a Artifact)
	Log(level Level, msg string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) RecordStep(string)       {}
func (discard) AttachArtifact(Artifact) {}
func (discard) Log(Level, string)       {}

// Multi fans out to every sink in order.
func Multi(sinks ...Sink) Sink {
	flat := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			flat = append(flat, s)
		}
	}
	return flat
}

type multi []Sink

func (m multi) RecordStep(name string) {
	for _, s := range m {
		s.RecordStep(name)
	}
}

func (m multi) AttachArtifact(a Artifact) {
	for _, s := range m {
		s.AttachArtifact(a)
	}
}

func (m multi) Log(level Level, msg string) {
	for _, s := range m {
		s.Log(level, msg)
	}
}

// LogSink forwards log lines and step markers to a zap logger. Artifacts are
// noted by name only.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) RecordStep(name string) {
	s.Logger.Info("step", zap.String("step", name))
}

func (s LogSink) AttachArtifact(a Artifact) {
	s.Logger.Info("artifact captured",
		zap.String("artifact", a.Name),
		zap.String("kind", string(a.Kind)),
		zap.Int("bytes", len(a.Data)))
}

func (s LogSink) Log(level Level, msg string) {
	if ce := s.Logger.Check(level, msg); ce != nil {
		ce.Write()
	}
}

// Entry is one recorded log line.
type Entry struct {
	Level   Level
	Message string
}

// Memory records everything it receives. Safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	steps     []string
	artifacts []Artifact
	entries   []Entry
}

func (m *Memory) RecordStep(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, name)
}

func (m *Memory) AttachArtifact(a Artifact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts = append(m.artifacts, a)
}

func (m *Memory) Log(level Level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: msg})
}

// Steps returns the recorded step names.
func (m *Memory) Steps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.steps...)
}

// Artifacts returns the recorded artifacts.
func (m *Memory) Artifacts() []Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Artifact(nil), m.artifacts...)
}

// Entries returns the recorded log lines.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Count returns how many entries at level contain substr.
func (m *Memory) Count(level Level, substr string) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}
