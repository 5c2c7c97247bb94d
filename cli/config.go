package main

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/config"
)

var (
	cfgServer       string
	cfgAPIKey       string
	cfgFile         string
	cfgSchedule     string
	cfgMQTTBroker   string
	cfgMQTTUser     string
	cfgMQTTPassword string
	cfgMQTTPrefix   string
	cfgMQTTRetain   bool
	cfgMQTTDisable  bool
	cfgShow         bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure default file, sync server and MQTT broker",
	Example: `  babylog config --log-file ~/baby/log.csv
  babylog config --server https://example.com --api-key babylog_xxx
  babylog config --mqtt-broker localhost:1883 --mqtt-prefix home/baby
  babylog config --show`,
	RunE: runConfig,
}

func init() {
	f := configCmd.Flags()
	f.StringVar(&cfgServer, "server", "", "Server URL")
	f.StringVar(&cfgAPIKey, "api-key", "", "API key for authentication")
	f.StringVar(&cfgFile, "log-file", "", "Default log file")
	f.StringVar(&cfgSchedule, "schedule", "", "Sync service schedule (cron spec, e.g. \"@every 30m\")")
	f.StringVar(&cfgMQTTBroker, "mqtt-broker", "", "MQTT broker address (enables MQTT publishing)")
	f.StringVar(&cfgMQTTUser, "mqtt-username", "", "MQTT username")
	f.StringVar(&cfgMQTTPassword, "mqtt-password", "", "MQTT password")
	f.StringVar(&cfgMQTTPrefix, "mqtt-prefix", "", "MQTT topic prefix (default \"babylog\")")
	f.BoolVar(&cfgMQTTRetain, "mqtt-retain", false, "Retain the latest summary message")
	f.BoolVar(&cfgMQTTDisable, "mqtt-disable", false, "Disable MQTT publishing")
	f.BoolVar(&cfgShow, "show", false, "Show current configuration")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfgShow {
		path, _ := config.Path()
		fmt.Fprintf(out, "Config: %s\n", path)
		fmt.Fprintf(out, "File: %s\n", orNone(cfg.File))
		fmt.Fprintf(out, "Server: %s\n", orNone(cfg.Server))
		fmt.Fprintf(out, "API Key: %s\n", maskKey(cfg.APIKey))
		if cfg.ClientID != "" {
			fmt.Fprintf(out, "Client ID: %s\n", cfg.ClientID)
		}
		fmt.Fprintf(out, "Sync schedule: %s\n", cfg.GetSyncSchedule())
		if cfg.MQTT.Enabled {
			fmt.Fprintf(out, "MQTT: %s (prefix %s, retain %t)\n", cfg.MQTT.Broker, orNone(cfg.MQTT.TopicPrefix), cfg.MQTT.Retain)
		} else {
			fmt.Fprintln(out, "MQTT: disabled")
		}
		return nil
	}

	if cmd.Flags().NFlag() == 0 {
		return cmd.Help()
	}

	if cfgSchedule != "" {
		if _, err := cron.ParseStandard(cfgSchedule); err != nil {
			return fmt.Errorf("invalid --schedule: %w", err)
		}
		cfg.SyncSchedule = cfgSchedule
	}
	if cfgServer != "" {
		cfg.Server = cfgServer
	}
	if cfgAPIKey != "" {
		cfg.APIKey = cfgAPIKey
	}
	if cfgFile != "" {
		cfg.File = cfgFile
	}
	if cfgMQTTBroker != "" {
		cfg.MQTT.Broker = cfgMQTTBroker
		cfg.MQTT.Enabled = true
	}
	if cfgMQTTUser != "" {
		cfg.MQTT.Username = cfgMQTTUser
	}
	if cfgMQTTPassword != "" {
		cfg.MQTT.Password = cfgMQTTPassword
	}
	if cfgMQTTPrefix != "" {
		cfg.MQTT.TopicPrefix = cfgMQTTPrefix
	}
	if cmd.Flags().Changed("mqtt-retain") {
		cfg.MQTT.Retain = cfgMQTTRetain
	}
	if cfgMQTTDisable {
		cfg.MQTT.Enabled = false
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "Configuration saved.")
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskKey shows only the ends of an API key
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 14 {
		return "****"
	}
	return key[:10] + "..." + key[len(key)-4:]
}
