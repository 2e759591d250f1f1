package report

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName turns a scenario or step name into a file name.
func SafeName(name string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// FileSink writes each artifact to Dir/<scenario>/<artifact><ext>.
type FileSink struct {
	Dir      string
	Scenario string
	Logger   *zap.Logger
}

func (s FileSink) RecordStep(string) {}
func (s FileSink) Log(Level, string) {}

func (s FileSink) AttachArtifact(a Artifact) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Join(s.Dir, SafeName(s.Scenario))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("failed to create artifact directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	path := filepath.Join(dir, SafeName(a.Name)+a.Ext())
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		log.Warn("failed to write artifact", zap.String("path", path), zap.Error(err))
		return
	}
	log.Debug("artifact written", zap.String("path", path))
}
