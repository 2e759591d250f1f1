package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/wait"
)

// Driver names accepted in HarnessConfig.Driver.
const (
	DriverHTML       = "html"
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
	DriverWebDriver  = "webdriver"
)

// DefaultBaseURL is the public OpenCart demo.
const DefaultBaseURL = "https://demo.opencart.com/"

// Maximized is the windowSize value asking for the largest window.
const Maximized = "maximized"

// HarnessConfig holds everything needed to launch browsers and run the suite
type HarnessConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	Driver            string        `yaml:"driver"`
	Browser           string        `yaml:"browser"`
	DriverBinaryPath  string        `yaml:"driverBinaryPath"`
	BrowserBinaryPath string        `yaml:"browserBinaryPath"`
	RemoteURL         string        `yaml:"remoteUrl"`
	WindowSize        string        `yaml:"windowSize"`
	Headless          *bool         `yaml:"headless"`
	Stealth           bool          `yaml:"stealth"`
	Timeout           time.Duration `yaml:"defaultTimeout"`
	PollInterval      time.Duration `yaml:"defaultPollInterval"`
	ImplicitTimeout   time.Duration `yaml:"implicitTimeout"`
	ScenarioTimeout   time.Duration `yaml:"scenarioTimeout"`
	Workers           int           `yaml:"workers"`
	ArtifactDir       string        `yaml:"artifactDir"`
	LogFile           string        `yaml:"logFile"`
	LogLevel          string        `yaml:"logLevel"`
	AllureDir         string        `yaml:"allureDir"`
	AdminUsername     string        `yaml:"adminUsername"`
	AdminPassword     string        `yaml:"adminPassword"`
}

// LoadHarnessConfig reads the optional YAML file at path, overlays the SHOP_*
// environment variables and applies defaults
func LoadHarnessConfig(path string, getenv func(string) string) (*HarnessConfig, error) {
	config := &HarnessConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(getenv); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *HarnessConfig) applyEnv(getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"SHOP_BASE_URL", &c.BaseURL},
		{"SHOP_DRIVER", &c.Driver},
		{"SHOP_BROWSER", &c.Browser},
		{"SHOP_DRIVER_BINARY", &c.DriverBinaryPath},
		{"SHOP_BROWSER_BINARY", &c.BrowserBinaryPath},
		{"SHOP_REMOTE_URL", &c.RemoteURL},
		{"SHOP_WINDOW_SIZE", &c.WindowSize},
		{"SHOP_ARTIFACT_DIR", &c.ArtifactDir},
		{"SHOP_LOG_FILE", &c.LogFile},
		{"SHOP_LOG_LEVEL", &c.LogLevel},
		{"SHOP_ALLURE_DIR", &c.AllureDir},
		{"SHOP_ADMIN_USERNAME", &c.AdminUsername},
		{"SHOP_ADMIN_PASSWORD", &c.AdminPassword},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHOP_TIMEOUT", &c.Timeout},
		{"SHOP_POLL_INTERVAL", &c.PollInterval},
		{"SHOP_IMPLICIT_TIMEOUT", &c.ImplicitTimeout},
		{"SHOP_SCENARIO_TIMEOUT", &c.ScenarioTimeout},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := getenv("SHOP_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOP_HEADLESS must be a boolean: %w", err)
		}
		c.Headless = &headless
	}
	if v := getenv("SHOP_STEALTH"); v != "" {
		stealth, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOP_STEALTH must be a boolean: %w", err)
		}
		c.Stealth = stealth
	}
	if v := getenv("SHOP_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOP_WORKERS must be an integer: %w", err)
		}
		c.Workers = workers
	}
	return nil
}

func (c *HarnessConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Driver == "" {
		c.Driver = DriverPlaywright
	}
	if c.WindowSize == "" {
		c.WindowSize = Maximized
	}
	if c.Headless == nil {
		headless := true
		c.Headless = &headless
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.ImplicitTimeout == 0 {
		c.ImplicitTimeout = c.Timeout
	}
	if c.ScenarioTimeout == 0 {
		c.ScenarioTimeout = 10 * time.Minute
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "demo"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "demo"
	}
}

// Validate reports the first invalid setting
func (c *HarnessConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SHOP_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	switch c.Driver {
	case DriverHTML, DriverPlaywright, DriverRod, DriverWebDriver:
	default:
		return fmt.Errorf("SHOP_DRIVER must be one of %s, got %q", strings.Join(Drivers(), ", "), c.Driver)
	}
	if _, err := ParseWindowSize(c.WindowSize); err != nil {
		return fmt.Errorf("SHOP_WINDOW_SIZE: %w", err)
	}
	if err := c.Wait().Validate(); err != nil {
		return fmt.Errorf("SHOP_TIMEOUT/SHOP_POLL_INTERVAL: %w", err)
	}
	if c.ImplicitTimeout < 0 {
		return errors.New("SHOP_IMPLICIT_TIMEOUT must not be negative")
	}
	if c.ScenarioTimeout < 0 {
		return errors.New("SHOP_SCENARIO_TIMEOUT must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("SHOP_WORKERS must be at least 1, got %d", c.Workers)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("SHOP_LOG_LEVEL: %w", err)
	}
	return nil
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	return []string{DriverHTML, DriverPlaywright, DriverRod, DriverWebDriver}
}

// Wait returns the default wait for page objects.
func (c *HarnessConfig) Wait() wait.Spec {
	return wait.Spec{Timeout: c.Timeout, Interval: c.PollInterval}
}

// Level returns the parsed log level, falling back to info.
func (c *HarnessConfig) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// BrowserOptions converts the launch settings for a browser.Launcher.
func (c *HarnessConfig) BrowserOptions() (browser.Options, error) {
	window, err := ParseWindowSize(c.WindowSize)
	if err != nil {
		return browser.Options{}, err
	}
	return browser.Options{
		Browser:           c.Browser,
		DriverBinaryPath:  c.DriverBinaryPath,
		BrowserBinaryPath: c.BrowserBinaryPath,
		Headless:          c.Headless == nil || *c.Headless,
		Window:            window,
		ImplicitTimeout:   c.ImplicitTimeout,
		RemoteURL:         c.RemoteURL,
		Stealth:           c.Stealth,
	}, nil
}

// ParseWindowSize accepts "maximized" or WIDTHxHEIGHT, e.g. 1920x1080.
func ParseWindowSize(s string) (browser.WindowSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == Maximized {
		return browser.WindowSize{Maximized: true}, nil
	}
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return browser.WindowSize{}, fmt.Errorf("window size %q is neither %q nor WIDTHxHEIGHT", s, Maximized)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return browser.WindowSize{}, fmt.Errorf("invalid window width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return browser.WindowSize{}, fmt.Errorf("invalid window height %q", h)
	}
	return browser.WindowSize{Width: width, Height: height}, nil
}
