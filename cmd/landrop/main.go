package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/rescp17/landrop/pkg/backend"
	"github.com/rescp17/landrop/pkg/discovery"
	"github.com/rescp17/landrop/pkg/landrop"
)

type options struct {
	backendURL      string
	locateTimeout   time.Duration
	serviceType     string
	pollInterval    time.Duration
	notificationTTL time.Duration
	logFile         string
	logLevel        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &options{}
	var logOut *os.File

	cmd := &cobra.Command{
		Use:   "landrop",
		Short: "Share files and text with devices on your local network",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := setupLogging(opts.logFile, opts.logLevel)
			if err != nil {
				return err
			}
			logOut = f
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logOut == nil {
				return
			}
			if err := logOut.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts)
		},
	}

	defaults := landrop.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backendURL, "backend", os.Getenv("LANDROP_BACKEND"), "Backend base URL, e.g. http://127.0.0.1:8080 (located over mDNS when empty)")
	flags.DurationVar(&opts.locateTimeout, "locate", 5*time.Second, "How long to look for a backend over mDNS")
	flags.StringVar(&opts.serviceType, "service", discovery.DefaultServiceType, "DNS-SD service type the backend announces")
	flags.DurationVar(&opts.pollInterval, "poll-interval", defaults.PollInterval, "Gap between device polls while discovery is on")
	flags.DurationVar(&opts.notificationTTL, "notification-ttl", defaults.NotificationTTL, "How long notifications stay visible")
	flags.StringVar(&opts.logFile, "log-file", "debug.log", "File to write logs to")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newUICmd(opts),
		newDevicesCmd(opts),
		newSendTextCmd(opts),
		newSendFileCmd(opts),
		newWatchCmd(opts),
		newAnnounceCmd(opts),
	)

	if err := fang.Execute(ctx, cmd); err != nil {
		os.Exit(1)
	}
}

// setupLogging sends every log line to path, since the terminal belongs to
// the TUI.
func setupLogging(path, level string) (*os.File, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
	return f, nil
}

// resolveBackend returns --backend when set, otherwise the first backend
// announced on the local network.
func resolveBackend(ctx context.Context, opts *options) (string, error) {
	if opts.backendURL != "" {
		return opts.backendURL, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opts.locateTimeout)
	defer cancel()
	url, err := backend.Locate(ctx, discovery.NewMDNSAdapter(), opts.serviceType)
	if err != nil {
		return "", fmt.Errorf("%w (use --backend to set it)", err)
	}
	return url, nil
}

func newApp(ctx context.Context, opts *options, picker landrop.FilePicker) (*landrop.App, error) {
	baseURL, err := resolveBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(baseURL)
	if err != nil {
		return nil, err
	}

	cfg := landrop.DefaultConfig()
	cfg.PollInterval = opts.pollInterval
	cfg.NotificationTTL = opts.notificationTTL
	app, err := landrop.NewApp(client, picker, landrop.WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("Using backend", "url", client.BaseURL(), "client_id", client.ClientID())
	return app, nil
}
