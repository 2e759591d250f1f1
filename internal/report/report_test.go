package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"add camera to cart":         "add_camera_to_cart",
		"Phones & PDAs/HTC Touch HD": "Phones_PDAs_HTC_Touch_HD",
		"":                           "unnamed",
		"///":                        "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeName(in), "SafeName(%q)", in)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	s := Multi(a, nil, b)

	s.RecordStep("open home")
	s.AttachArtifact(Artifact{Name: "CameraCart", Kind: Screenshot, Data: []byte{1}})
	s.Log(WarnLevel, "product not found")

	for _, m := range []*Memory{a, b} {
		assert.Equal(t, []string{"open home"}, m.Steps())
		assert.Len(t, m.Artifacts(), 1)
		assert.Equal(t, 1, m.Count(WarnLevel, "not found"))
		assert.Equal(t, 0, m.Count(InfoLevel, "not found"))
	}
}

func TestFileSink_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	s := FileSink{Dir: dir, Scenario: "add camera to cart"}

	s.AttachArtifact(Artifact{Name: "CameraCart", Kind: Screenshot, Data: []byte("png")})
	s.AttachArtifact(Artifact{Name: "CameraCart source", Kind: PageSource, Data: []byte("<html>")})

	got, err := os.ReadFile(filepath.Join(dir, "add_camera_to_cart", "CameraCart.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "add_camera_to_cart", "CameraCart_source.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(got))
}

func TestAllureResult_Write(t *testing.T) {
	dir := t.TempDir()
	r := NewAllureResult(dir, "add camera to cart", "Cart", "Camera")

	r.RecordStep("open home")
	r.RecordStep("add to cart")
	r.AttachArtifact(Artifact{Name: "CameraCart", Kind: Screenshot, Data: []byte("png")})
	require.NoError(t, r.Write(AllureFailed, errors.New("product missing from cart")))

	matches, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var res allureResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, AllureFailed, res.Status)
	assert.Equal(t, "finished", res.Stage)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, AllurePassed, res.Steps[0].Status)
	assert.Equal(t, AllureFailed, res.Steps[1].Status)
	require.Len(t, res.Attachments, 1)
	assert.Equal(t, "image/png", res.Attachments[0].Type)
	require.NotNil(t, res.Details)
	assert.Contains(t, res.Details.Message, "missing")

	_, err = os.Stat(filepath.Join(dir, res.Attachments[0].Source))
	assert.NoError(t, err)
}

func TestNewLogger_WritesRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, closeFn, err := NewLogger(LoggerConfig{File: path, Level: InfoLevel, Quiet: true})
	require.NoError(t, err)

	LogSink{Logger: logger}.Log(WarnLevel, "product Canon EOS 5D not found")
	LogSink{Logger: logger}.Log(DebugLevel, "dropped below level")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "WARN")
	assert.Contains(t, text, "product Canon EOS 5D not found")
	assert.False(t, strings.Contains(text, "dropped below level"))
}
