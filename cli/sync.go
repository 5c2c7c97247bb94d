package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kardianos/service"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/config"
	"github.com/zhaobenny/babylog/cli/internal/sync"
	"github.com/zhaobenny/babylog/internal/loader"
	"github.com/zhaobenny/babylog/internal/parser"
)

var errNotConfigured = errors.New("not configured, run 'babylog config --server <url> --api-key <key>' first")

var (
	dryRun       bool
	forceSync    bool
	syncSchedule string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the log to the sync server once, or manage the background sync service",
	Example: `  babylog sync                          Sync once
  babylog sync --dry-run                Show what would be synced
  babylog sync install                  Install service (hourly by default)
  babylog sync install --schedule "@every 30m"
  babylog sync start                    Start the service
  babylog sync stop                     Stop the service`,
	Args: cobra.NoArgs,
	RunE: runSyncOnce,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be synced without sending")
	syncCmd.Flags().BoolVar(&forceSync, "force", false, "Sync even if the file has not changed since the last sync")
	syncCmd.PersistentFlags().StringVar(&syncSchedule, "schedule", "", "Sync schedule for service mode as a cron spec (default from config, else @hourly)")

	for _, sub := range []*cobra.Command{
		{Use: "install", Short: "Install and start the background service", RunE: serviceAction(installService)},
		{Use: "start", Short: "Start the background service", RunE: serviceAction(startService)},
		{Use: "stop", Short: "Stop the background service", RunE: serviceAction(stopService)},
		{Use: "uninstall", Short: "Remove the background service", RunE: serviceAction(uninstallService)},
		{Use: "status", Short: "Show service status", RunE: serviceAction(serviceStatus)},
		{Use: "run", Short: "Run the service in the foreground", Hidden: true, RunE: serviceAction(runService)},
	} {
		sub.Args = cobra.NoArgs
		syncCmd.AddCommand(sub)
	}
	rootCmd.AddCommand(syncCmd)
}

// syncService implements service.Interface for scheduled syncing
type syncService struct {
	schedule string
	file     string
	cron     *cron.Cron
	logger   service.Logger
}

func (s *syncService) Start(svc service.Service) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.CanSync() {
		return errNotConfigured
	}

	client := sync.NewClient(cfg)
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.tick(client) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	// Sync immediately on start
	go s.tick(client)
	s.cron.Start()
	return nil
}

func (s *syncService) Stop(svc service.Service) error {
	if s.cron == nil {
		return nil
	}
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
	}
	return nil
}

func (s *syncService) tick(client *sync.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := syncFile(ctx, client, s.file, false)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("Error syncing: %v", err)
		}
		return
	}
	if resp != nil && s.logger != nil {
		s.logger.Infof("Synced %d events (%d rows skipped, %d tokens rejected)", resp.AcceptedEvents, resp.SkippedRows, resp.RejectedTokens)
	}
}

// syncFile uploads file unless it is unchanged since the server's last
// sync. A nil response with a nil error means nothing was sent.
func syncFile(ctx context.Context, client *sync.Client, file string, force bool) (*sync.SyncResponse, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	if !force {
		lastSync, err := client.GetSyncStatus(ctx)
		if err == nil && lastSync != nil && !info.ModTime().After(*lastSync) {
			return nil, nil
		}
	}

	rows, err := loader.Load(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", file, err)
	}
	return client.Sync(ctx, rows)
}

func newService() (service.Service, *syncService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	schedule := syncSchedule
	if schedule == "" {
		schedule = cfg.GetSyncSchedule()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, nil, fmt.Errorf("invalid --schedule: %w", err)
	}

	file := resolveFile()
	svcConfig := &service.Config{
		Name:        "babylog-sync",
		DisplayName: "babylog Sync Service",
		Description: "Periodically uploads the baby care log to the babylog server",
		Arguments:   []string{"sync", "run", "--schedule=" + schedule, "--file=" + file},
	}

	svc := &syncService{schedule: schedule, file: file}
	s, err := service.New(svc, svcConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, svc, nil
}

func serviceAction(fn func(io.Writer, service.Service, *syncService) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, svc, err := newService()
		if err != nil {
			return err
		}
		return fn(cmd.OutOrStdout(), s, svc)
	}
}

func installService(out io.Writer, s service.Service, svc *syncService) error {
	cfg, err := config.Load()
	if err != nil || !cfg.CanSync() {
		return errNotConfigured
	}
	if svc.file == "" {
		return fmt.Errorf("no log file, pass --file or run 'babylog config --log-file <path>'")
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("installing service: %w", err)
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("service installed but failed to start: %w", err)
	}
	fmt.Fprintln(out, "Service installed and started.")
	fmt.Fprintf(out, "Sync schedule: %s\n", svc.schedule)
	return nil
}

func startService(out io.Writer, s service.Service, _ *syncService) error {
	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	fmt.Fprintln(out, "Service started.")
	return nil
}

func stopService(out io.Writer, s service.Service, _ *syncService) error {
	if err := s.Stop(); err != nil {
		return fmt.Errorf("stopping service: %w", err)
	}
	fmt.Fprintln(out, "Service stopped.")
	return nil
}

func uninstallService(out io.Writer, s service.Service, _ *syncService) error {
	_ = s.Stop()
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("uninstalling service: %w", err)
	}
	fmt.Fprintln(out, "Service uninstalled.")
	return nil
}

func serviceStatus(out io.Writer, s service.Service, _ *syncService) error {
	status, err := s.Status()
	if err != nil {
		fmt.Fprintf(out, "Service status: not installed or error (%v)\n", err)
		return nil
	}
	switch status {
	case service.StatusRunning:
		fmt.Fprintln(out, "Service status: running")
	case service.StatusStopped:
		fmt.Fprintln(out, "Service status: stopped")
	default:
		fmt.Fprintln(out, "Service status: unknown")
	}
	return nil
}

func runService(_ io.Writer, s service.Service, svc *syncService) error {
	logger, err := s.Logger(nil)
	if err == nil {
		svc.logger = logger
	}
	return s.Run()
}

func runSyncOnce(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.CanSync() {
		return errNotConfigured
	}

	file := resolveFile()
	if file == "" {
		return fmt.Errorf("no log file, pass --file or run 'babylog config --log-file <path>'")
	}

	client := sync.NewClient(cfg)

	if dryRun {
		rows, err := loader.Load(file)
		if err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
		res := parser.Build(rows)
		fmt.Fprintf(out, "Would sync %d rows from %s (%d events, %d weight samples).\n",
			len(rows), file, res.EventCount(), len(res.Weight))
		if verbose {
			logDiagnostics(res)
		}
		return nil
	}

	resp, err := syncFile(cmd.Context(), client, file, forceSync)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if resp == nil {
		fmt.Fprintln(out, "Log unchanged since last sync.")
		return nil
	}

	fmt.Fprintf(out, "Synced %d events.\n", resp.AcceptedEvents)
	if resp.SkippedRows > 0 || resp.RejectedTokens > 0 {
		fmt.Fprintf(out, "Server skipped %d rows and rejected %d tokens.\n", resp.SkippedRows, resp.RejectedTokens)
	}
	return nil
}
