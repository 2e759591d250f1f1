package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	internalcli "github.com/adyen/shopharness/internal/cli"
	"github.com/adyen/shopharness/internal/config"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/scenario"
	"github.com/adyen/shopharness/internal/suite"
)

var version = "0.1.0"

// loadHarnessConfig reads the config file and environment, then applies the
// flags the user set explicitly
func loadHarnessConfig(c *cli.Context) (*config.HarnessConfig, error) {
	cfg, err := config.LoadHarnessConfig(c.String("config"), os.Getenv)
	if err != nil {
		return nil, err
	}

	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("browser") {
		cfg.Browser = c.String("browser")
	}
	if c.IsSet("headless") {
		headless := c.Bool("headless")
		cfg.Headless = &headless
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("artifact-dir") {
		cfg.ArtifactDir = c.String("artifact-dir")
	}
	if c.IsSet("allure-dir") {
		cfg.AllureDir = c.String("allure-dir")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the storefront scenarios in a browser",
		ArgsUsage: "[scenario or feature ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "storefront URL"},
			&cli.StringFlag{Name: "driver", Aliases: []string{"d"}, Usage: "html, playwright, rod or webdriver"},
			&cli.StringFlag{Name: "browser", Aliases: []string{"b"}, Usage: "browser product for the driver"},
			&cli.BoolFlag{Name: "headless", Usage: "hide the browser window"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "parallel browser sessions"},
			&cli.DurationFlag{Name: "timeout", Usage: "default explicit wait"},
			&cli.StringFlag{Name: "artifact-dir", Usage: "directory for screenshots and page sources"},
			&cli.StringFlag{Name: "allure-dir", Usage: "directory for allure result files"},
			&cli.StringFlag{Name: "log-file", Usage: "plain-text run log"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug details"},
			&cli.BoolFlag{Name: "serve", Usage: "start the demo storefront and run against it"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadHarnessConfig(c)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, closeLog, err := report.NewLogger(report.LoggerConfig{File: cfg.LogFile, Level: cfg.Level()})
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if c.Bool("serve") {
				baseURL, shutdown, err := internalcli.ServeShop(cfg, logger.Named("shop"))
				if err != nil {
					return err
				}
				defer shutdown()
				cfg.BaseURL = baseURL
			}

			launcher, err := internalcli.NewLauncher(cfg.Driver, logger)
			if err != nil {
				return err
			}

			_, err = internalcli.RunSuite(ctx, internalcli.RunDependencies{
				Config:   cfg,
				Launcher: launcher,
				Logger:   logger,
				Out:      c.App.Writer,
				Patterns: c.Args().Slice(),
			})
			if errors.Is(err, internalcli.ErrScenariosFailed) {
				return cli.Exit(err.Error(), 1)
			}
			return err
		},
	}
}

// ListCommand returns the list command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the scenarios",
		ArgsUsage: "[scenario or feature ...]",
		Action: func(c *cli.Context) error {
			all := suite.Scenarios(suite.Options{})
			return internalcli.ListScenarios(c.App.Writer, scenario.Select(all, c.Args().Slice()...))
		},
	}
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the demo storefront",
		Action: func(c *cli.Context) error {
			serverConfig, err := config.LoadServerConfig(os.Getenv)
			if err != nil {
				return err
			}

			logger, closeLog, err := report.NewLogger(report.LoggerConfig{Level: report.InfoLevel})
			if err != nil {
				return err
			}
			defer closeLog()

			shop, closeShop, err := internalcli.BuildShop(serverConfig, logger)
			if err != nil {
				return err
			}
			defer closeShop()

			return internalcli.RunServe(internalcli.ServerDependencies{
				ServerConfig: serverConfig,
				Shop:         shop,
			})
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	app := &cli.App{
		Name:    "shopharness",
		Usage:   "Browser end-to-end scenarios for an OpenCart storefront",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"SHOP_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			RunCommand(),
			ListCommand(),
			ServeCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Fatal(err)
	}
}
