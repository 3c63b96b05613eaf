package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rescp17/landrop/internal/style"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/discovery"
	"github.com/rescp17/landrop/pkg/filepicker"
	"github.com/rescp17/landrop/pkg/landrop"
	"github.com/rescp17/landrop/pkg/notify"
	"github.com/rescp17/landrop/pkg/ui"
)

func newUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts)
		},
	}
}

func runUI(ctx context.Context, opts *options) error {
	app, err := newApp(ctx, opts, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("Failed to close app", "error", err)
		}
	}()

	if err := app.Start(ctx); err != nil {
		slog.Warn("App started with errors", "error", err)
	}
	return ui.Run(ctx, app, app.Config().DefaultFilter)
}

func newDevicesCmd(opts *options) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Run discovery briefly and list the devices found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, opts, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			devices, err := discover(ctx, app, wait, func([]device.Device) bool { return false })
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), devicesTable(devices))
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to keep discovering (default two poll intervals)")
	return cmd
}

func newSendTextCmd(opts *options) *cobra.Command {
	var (
		to   string
		wait time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send-text --to <device-id> <text>",
		Short: "Send a text message to a device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, opts, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			target, err := findDevice(ctx, app, to, wait)
			if err != nil {
				return err
			}
			outcome := app.SendText(ctx, &target, strings.Join(args, " "))
			return report(cmd, app, outcome)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Id of the receiving device")
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to look for the device (default two poll intervals)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSendFileCmd(opts *options) *cobra.Command {
	var (
		to   string
		wait time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send-file --to <device-id> [path]",
		Short: "Send a file to a device, choosing it interactively when no path is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			picker := filepicker.NewPicker("")
			if path == "" {
				if err := picker.CheckTerminal(); err != nil {
					return err
				}
			}

			app, err := newApp(ctx, opts, picker)
			if err != nil {
				return err
			}
			defer app.Close()

			target, err := findDevice(ctx, app, to, wait)
			if err != nil {
				return err
			}
			outcome := app.SendFile(ctx, &target, path)
			return report(cmd, app, outcome)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Id of the receiving device")
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to look for the device (default two poll intervals)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print notifications as they arrive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, opts, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			changed, cancel := app.WatchNotifications()
			defer cancel()

			if err := app.Start(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), style.ErrorStyle.Render(err.Error()))
			}

			seen := make(map[string]struct{})
			out := cmd.OutOrStdout()
			for {
				printNew(out, app.Notifications(), seen)
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-changed:
					if !ok {
						return nil
					}
				}
			}
		},
	}
}

func newAnnounceCmd(opts *options) *cobra.Command {
	var (
		name   string
		port   int
		scheme string
	)
	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Advertise a backend on the local network over mDNS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				host, err := os.Hostname()
				if err != nil {
					return fmt.Errorf("get hostname: %w", err)
				}
				name = "landrop-" + host
			}
			info := discovery.ServiceInfo{
				Name:   name,
				Type:   opts.serviceType,
				Domain: discovery.DefaultDomain,
				Port:   port,
				Text:   map[string]string{"scheme": scheme},
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Announcing %s on port %d, press ctrl+c to stop\n", discovery.QueryName(info.Type, info.Domain), port)
			return discovery.NewMDNSAdapter().Announce(cmd.Context(), info)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Instance name (default landrop-<hostname>)")
	cmd.Flags().IntVar(&port, "port", 8080, "Port the backend listens on")
	cmd.Flags().StringVar(&scheme, "scheme", "http", "URL scheme the backend serves")
	return cmd
}

// discover turns discovery on and collects snapshots until done accepts one
// or wait runs out. Discovery is turned off again before returning.
func discover(ctx context.Context, app *landrop.App, wait time.Duration, done func([]device.Device) bool) ([]device.Device, error) {
	if wait <= 0 {
		wait = 2 * app.Config().PollInterval
	}
	changed, cancel := app.WatchDevices()
	defer cancel()

	if _, err := app.ToggleDiscovery(ctx); err != nil {
		return nil, fmt.Errorf("start discovery: %w", err)
	}
	defer func() {
		if app.DiscoveryActive() {
			if _, err := app.ToggleDiscovery(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("Failed to stop discovery", "error", err)
			}
		}
	}()

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return app.Devices(), nil
		case <-changed:
			if devices := app.Devices(); done(devices) {
				return devices, nil
			}
		}
	}
}

func findDevice(ctx context.Context, app *landrop.App, id string, wait time.Duration) (device.Device, error) {
	found := func(devices []device.Device) bool {
		return slices.ContainsFunc(devices, func(d device.Device) bool { return d.ID == id })
	}
	// Stopping discovery clears the registry, so look in the snapshot.
	devices, err := discover(ctx, app, wait, found)
	if err != nil {
		return device.Device{}, err
	}
	i := slices.IndexFunc(devices, func(d device.Device) bool { return d.ID == id })
	if i < 0 {
		return device.Device{}, fmt.Errorf("device %q not found", id)
	}
	return devices[i], nil
}

func devicesTable(devices []device.Device) string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, d.Name, d.Address(), d.DeviceType, d.OS})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(style.HelpStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return style.HeaderStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("ID", "Name", "Address", "Type", "OS").
		Rows(rows...).
		String()
}

// report prints what the send produced and turns the outcome into an exit
// status.
func report(cmd *cobra.Command, app *landrop.App, outcome landrop.Outcome) error {
	printNew(cmd.OutOrStdout(), app.Notifications(), map[string]struct{}{})
	switch outcome {
	case landrop.OutcomeSent:
		return nil
	case landrop.OutcomeFailed:
		return errors.New("send failed, see the log for details")
	default:
		return errors.New("nothing was sent")
	}
}

// printNew prints notifications not in seen, oldest first, and marks them.
func printNew(out io.Writer, notifications []notify.Notification, seen map[string]struct{}) {
	for i := len(notifications) - 1; i >= 0; i-- {
		n := notifications[i]
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		fmt.Fprintln(out, style.NotificationTitle(n.Kind).Render(ui.FormatNotification(n)))
	}
}
