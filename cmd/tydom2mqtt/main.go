// Tydom2mqtt bridges a Delta Dore Tydom hub to an MQTT broker.
//
// It opens an authenticated websocket to the hub (directly on the LAN or
// through the vendor's cloud relay), translates device state into Home
// Assistant discovery and state topics, and maps broker commands back onto
// hub requests.
//
// Usage:
//
//	tydom2mqtt run [flags]
//
// See 'tydom2mqtt run --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/bridge"
	"github.com/tydom2mqtt/tydom2mqtt/internal/config"
	"github.com/tydom2mqtt/tydom2mqtt/internal/discovery"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
	"github.com/tydom2mqtt/tydom2mqtt/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tydom2mqtt",
	Short: "Tydom to MQTT bridge",
	Long: `A bridge between a Delta Dore Tydom home automation hub and an MQTT broker.

Device state is published with Home Assistant MQTT discovery; commands
arriving on the broker are relayed back to the hub.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bridge",
	Long: `Start the bridge and keep it running.

Configuration comes from an optional YAML file, environment variables and
the Home Assistant add-on options file, in increasing order of precedence.
On any hub connection fault the bridge reconnects from scratch with
exponential backoff.`,
	Example: `  # Start with configuration from the environment
  TYDOM_MAC=001A25123456 TYDOM_PASSWORD=secret tydom2mqtt run

  # Start against a hub on the LAN, with a config file
  tydom2mqtt run --config /etc/tydom2mqtt.yaml`,
	RunE: runBridge,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file (optional)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	// Bootstrap logging so configuration loading is visible, then
	// re-initialize with the configured level.
	if err := logging.InitializeBootstrap(); err != nil {
		return err
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logging.Initialize(settings.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	logging.Info("Starting tydom2mqtt", zap.String("version", version.Full()))

	broker := mqtt.NewClient(settings.MQTT)
	if err := broker.Connect(); err != nil {
		return err
	}
	defer broker.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bridge.New(settings, broker)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 2 * time.Minute
	policy.MaxElapsedTime = 0

	for {
		err := b.Run(ctx)
		if ctx.Err() != nil {
			logging.Info("Shutting down")
			return nil
		}
		wait := policy.NextBackOff()
		logging.Error("Bridge session ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait),
		)
		select {
		case <-ctx.Done():
			logging.Info("Shutting down")
			return nil
		case <-time.After(wait):
		}
	}
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the LAN for Tydom hubs",
	Long: `Browse mDNS for Tydom hubs on the local network.

Useful to find the hub IP for local mode. The scan is passive and does not
touch the configured bridge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Scanning for Tydom hubs...")
		hubs, err := discovery.NewScanner().Scan(cmd.Context())
		if err != nil {
			return err
		}
		if len(hubs) == 0 {
			fmt.Println("No hub found. Hubs reachable only through the cloud relay do not announce on the LAN.")
			return nil
		}
		for _, hub := range hubs {
			fmt.Println(hub)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tydom2mqtt %s\n", version.Full())
	},
}
