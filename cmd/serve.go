package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/shopwatch/internal/server"
	"github.com/sw33tLie/shopwatch/internal/utils"
	"github.com/sw33tLie/shopwatch/pkg/polling"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP trigger and poll the shop in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollInterval, _ := cmd.Flags().GetInt("poll-interval")
		listenAddr, _ := cmd.Flags().GetString("listen")

		deps, err := buildRunner(cmd, false)
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watchPrices(deps.Runner)

		pollerDone := make(chan struct{})
		if pollInterval > 0 {
			go func() {
				defer close(pollerDone)
				startBackgroundPoller(ctx, deps.Runner, time.Duration(pollInterval)*time.Minute)
			}()
		} else {
			close(pollerDone)
		}

		srv := server.New(deps.Runner, viper.GetString("server.username"), viper.GetString("server.password"))
		err = srv.Start(ctx, listenAddr)
		stop()
		<-pollerDone
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("poll-interval", 60, "Minutes between background cycles (0 to disable)")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}

// startBackgroundPoller runs a cycle immediately and then on every tick.
func startBackgroundPoller(ctx context.Context, runner *polling.Runner, interval time.Duration) {
	utils.Log.Infof("Starting background poller (interval: %s)", interval)

	runCycle(ctx, runner)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCycle(ctx, runner)
		}
	}
}

func runCycle(ctx context.Context, runner *polling.Runner) {
	result, err := runner.Run(ctx)
	if err != nil {
		utils.Log.Errorf("Background cycle failed: %v", err)
		return
	}
	utils.Log.Infof("Background cycle %s: %s", result.RunID, summaryLine(result))
}

func summaryLine(result *polling.Result) string {
	if result.FirstRun || len(result.Changes) == 0 {
		return result.Message
	}
	return "changes delivered"
}

// watchPrices reloads the real-price table whenever the config file changes.
func watchPrices(runner *polling.Runner) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		prices, err := loadPrices()
		if err != nil {
			utils.Log.Warnf("Config changed (%s) but real prices could not be reloaded: %v", e.Name, err)
			return
		}
		runner.SetPrices(prices)
		utils.Log.Infof("Reloaded real prices after %s on %s", e.Op, e.Name)
	})
	viper.WatchConfig()
}
