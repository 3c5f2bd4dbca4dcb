package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-rsdk/internal/config"
	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/sim"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

var (
	cfg     config.Config
	envFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rsdk",
	Short: "Control the robot's head and arms.",
	Long: `rsdk commands the robot's head and arms over NATS, MQTT or an ` +
		`in-process bus. Configuration is read from the environment ` +
		`(RSDK_TRANSPORT, RSDK_ENDPOINT, ...) and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}
		cfg = c
		log.Init(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env when present)")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// connect opens the bus. On the memory transport nothing else would
// publish state, so a simulator is started on the same bus.
func connect(ctx context.Context) (transport.Bus, error) {
	bus, err := transport.Open(ctx, cfg.Bus(), log.Component("transport"))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if cfg.Transport == "memory" {
		robot, err := sim.New(bus, sim.Options{Prefix: cfg.Prefix, Logger: log.Component("sim")})
		if err != nil {
			bus.Close()
			return nil, err
		}
		go robot.Run(ctx)
		log.Info("using in-process simulator")
	}
	return bus, nil
}
