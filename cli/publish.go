package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/config"
	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/publisher"
)

var (
	publishAll      bool
	publishSchedule string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish daily summaries to the configured MQTT broker",
	Example: `  babylog publish                       Publish the latest day
  babylog publish --all                 Publish every day
  babylog publish --schedule "@every 15m"`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Publish every day, not only the latest")
	publishCmd.Flags().StringVar(&publishSchedule, "schedule", "", "Keep running and republish on this cron spec")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not configured, run 'babylog config --mqtt-broker <host:port>' first")
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return err
	}
	defer pub.Close()

	publishOnce := func() error {
		res, err := buildLog(cmd)
		if err != nil {
			return err
		}
		n, err := pub.PublishReport(aggregator.ByDay(res.EventLog), publishAll)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %d day(s).\n", n)
		return nil
	}

	if publishSchedule == "" {
		return publishOnce()
	}

	c := cron.New()
	if _, err := c.AddFunc(publishSchedule, func() {
		if err := publishOnce(); err != nil {
			log.Printf("[publish] %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid --schedule: %w", err)
	}

	if err := publishOnce(); err != nil {
		log.Printf("[publish] %v", err)
	}
	c.Start()
	log.Printf("[publish] publishing on schedule %q, press Ctrl+C to stop", publishSchedule)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}

	<-c.Stop().Done()
	return nil
}
