package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"emissions-platform/internal/app"
	"emissions-platform/internal/config"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

type globalOpts struct {
	configPath string
	storage    string
	logLevel   string
}

func (o *globalOpts) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if o.storage != "" {
		cfg.Storage.Backend = o.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp builds the services for one command. Logs go to the command's stderr.
func (o *globalOpts) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NewStructuredLogger("emissionsctl", app.Version, logging.ParseLevel(o.logLevel))
	logger.SetOutput(cmd.ErrOrStderr())

	return app.New(cmd.Context(), cfg, logger, metrics.NewCollector("emissionsctl", prometheus.NewRegistry()))
}

// loadData ingests before reading when the store does not outlive the process
func loadData(ctx context.Context, a *app.App, refresh bool, errOut io.Writer) error {
	if !refresh && a.Config.Storage.Backend != config.StorageMemory {
		return nil
	}
	result, err := a.Ingest(ctx)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(errOut, "warning: %s\n", msg)
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
