package main

import (
	"fmt"
	"os"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/config"
	"github.com/core-tools/hsu-companion-go/pkg/deployment"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
	"github.com/core-tools/hsu-companion-go/pkg/logging/zaplogging"
	"github.com/core-tools/hsu-companion-go/pkg/serverpath"
	"github.com/core-tools/hsu-companion-go/pkg/supervisor"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Config      string `long:"config" short:"c" description:"Configuration file path (YAML), defaults are used if omitted"`
	LogLevel    string `long:"log-level" description:"Override the configured log level (debug, info, warn, error)"`
	MetricsAddr string `long:"metrics-addr" description:"Serve Prometheus metrics on this address"`
	RunDuration int    `long:"run-duration" description:"Duration in seconds to run (debug feature)"`
	PrintEntry  bool   `long:"print-entry" description:"Print the resolved companion entry path and exit"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	mode := deployment.Current()

	cfg, err := loadConfig(opts, mode)
	if err != nil {
		fmt.Printf("Configuration failed: %v\n", err)
		os.Exit(1)
	}

	if opts.PrintEntry {
		entry, err := serverpath.ResolveCurrent(mode, cfg.Layout)
		if err != nil {
			fmt.Printf("Companion entry path unresolvable: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(entry)
		return
	}

	zapLogger, err := zaplogging.NewZapLogger(zaplogging.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger := logging.NewLogger(
		logPrefix("companion-host"), logging.LogFuncs{
			Debugf: zapLogger.Debugf,
			Infof:  zapLogger.Infof,
			Warnf:  zapLogger.Warnf,
			Errorf: zapLogger.Errorf,
		})

	if opts.Config != "" {
		logger.Infof("Using CONFIGURATION FILE: %s", opts.Config)
	}

	err = supervisor.Run(supervisor.RunOptions{
		Config:      cfg,
		Mode:        mode,
		RunDuration: time.Duration(opts.RunDuration) * time.Second,
	}, logger)
	if err != nil {
		logger.Errorf("Failed to run: %v", err)
		zapLogger.Sync()
		os.Exit(1)
	}
}

func loadConfig(opts flagOptions, mode deployment.Mode) (*config.Config, error) {
	cfg := config.DefaultConfig(mode)
	if opts.Config != "" {
		var err error
		cfg, err = config.LoadConfigFromFile(opts.Config, mode)
		if err != nil {
			return nil, err
		}
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = opts.MetricsAddr
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
