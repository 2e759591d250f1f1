package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/browser/htmldriver"
	"github.com/adyen/shopharness/internal/browser/pwdriver"
	"github.com/adyen/shopharness/internal/browser/roddriver"
	"github.com/adyen/shopharness/internal/browser/wddriver"
	"github.com/adyen/shopharness/internal/config"
)

// NewLauncher returns the launcher registered under name.
func NewLauncher(name string, logger *zap.Logger) (browser.Launcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(name)
	switch name {
	case config.DriverHTML:
		return htmldriver.Launcher{Logger: logger}, nil
	case config.DriverPlaywright:
		return pwdriver.Launcher{Logger: logger}, nil
	case config.DriverRod:
		return roddriver.Launcher{Logger: logger}, nil
	case config.DriverWebDriver:
		return wddriver.Launcher{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", name)
	}
}
