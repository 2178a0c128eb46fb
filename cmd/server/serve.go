package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/browserdesk/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/server"
)

type serveOptions struct {
	configFile string
	port       string
	host       string
	viewHost   string
	dev        bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Long: `Run the HTTP and WebSocket server.

Configuration comes from defaults, then the config file (YAML or TOML), then
environment variables, then flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "Path to a YAML or TOML config file")
	f.StringVar(&opts.port, "port", "", "Server port (overrides PORT)")
	f.StringVar(&opts.host, "host", "", "Listen address (overrides HOST)")
	f.StringVar(&opts.viewHost, "view-host", "", "View host base URL; empty uses in-memory tabs")
	f.BoolVar(&opts.dev, "dev", false, "Development logging (colored, debug level)")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.viewHost != "" {
		cfg.ViewHost.Address = opts.viewHost
	}
	if opts.dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Output:      cfg.Logging.Output,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	apihttp.Version = version
	logger.Info("Starting browserdesk",
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
		zap.Bool("view_host", cfg.ViewHost.Address != ""),
	)

	srv, err := server.NewServer(cfg, logger.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
