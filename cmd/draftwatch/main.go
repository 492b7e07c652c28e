// Command draftwatch runs the draft-watching agent: it connects to the
// local League client, tracks champion select and game state, and opens
// analytics pages in the default browser at the configured trigger moments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/config"
	"github.com/draftwatch/agent/internal/dispatch"
	"github.com/draftwatch/agent/internal/locator"
	"github.com/draftwatch/agent/internal/logging"
	"github.com/draftwatch/agent/internal/observer"
	"github.com/draftwatch/agent/internal/supervisor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logPretty  bool
		bridgePort string
	)

	root := &cobra.Command{
		Use:   "draftwatch",
		Short: "Draft-watching agent for League champion select and in-game triggers",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "draftwatch.json", "path to the configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "use human-readable console log output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the League client and dispatch trigger URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, logLevel, logPretty, bridgePort)
		},
	}
	runCmd.Flags().StringVar(&bridgePort, "bridge-port", "", "optional loopback port to broadcast state over WebSocket (disabled if empty)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(configPath, logLevel)
		},
	}
	configCmd := &cobra.Command{Use: "config", Short: "Configuration utilities"}
	configCmd.AddCommand(validateCmd)

	root.AddCommand(runCmd, configCmd)
	return root
}

func run(ctx context.Context, configPath, logLevel string, logPretty bool, bridgePort string) error {
	log := logging.New(logging.Options{Level: logLevel, Pretty: logPretty})

	cfg, err := config.Load(configPath, log)
	if err != nil {
		return fmt.Errorf("draftwatch: initial config load: %w", err)
	}

	registry, err := champions.New()
	if err != nil {
		return fmt.Errorf("draftwatch: load champion registry: %w", err)
	}

	disp := dispatch.New(log)

	var observers []observer.Observer
	if bridgePort != "" {
		bridge := observer.NewBridge(bridgePort, log)
		bridge.Start()
		defer bridge.Stop()
		observers = append(observers, bridge)
	}
	multi := observer.NewMulti(observers...)

	sup := supervisor.New(locator.New(""), registry, disp, multi, log, cfg)

	config.Watch(configPath, log, sup.SetConfig)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Champions.RefreshIntervalMs > 0 {
		go runChampionRefresh(ctx, registry, cfg.Champions, log)
	}

	log.Info().Str("config", configPath).Msg("draftwatch: starting")
	err = sup.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("draftwatch: shut down")
	return nil
}

// runChampionRefresh periodically re-pulls champion names from the vendor
// CDN (§4.7: "optional async refresh from the vendor CDN may update the
// registry atomically"). It runs until ctx is cancelled; a failed refresh is
// logged and retried on the next tick, leaving the embedded data authoritative
// in the meantime.
func runChampionRefresh(ctx context.Context, registry *champions.Registry, cfg config.Champions, log zerolog.Logger) {
	refresher := champions.NewRefresher(resty.New(), cfg.CDNBaseURL, log)

	ticker := time.NewTicker(time.Duration(cfg.RefreshIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := refresher.Refresh(ctx, registry); err != nil {
				log.Warn().Err(err).Msg("draftwatch: champion registry refresh failed, keeping prior data")
			}
		}
	}
}

func validateConfig(configPath, logLevel string) error {
	log := logging.New(logging.Options{Level: logLevel})
	cfg, err := config.Load(configPath, log)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("draftwatch: invalid configuration: %w", err)
	}
	fmt.Println("configuration OK")
	return nil
}
