package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/sim"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the robot simulator on the configured broker.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Transport == "memory" {
			return fmt.Errorf("sim needs a broker: set RSDK_TRANSPORT to nats or mqtt")
		}

		rate, _ := cmd.Flags().GetFloat64("rate")
		enabled, _ := cmd.Flags().GetBool("enabled")

		ctx, cancel := signalContext()
		defer cancel()

		bus, err := transport.Open(ctx, cfg.Bus(), log.Component("transport"))
		if err != nil {
			return err
		}
		defer bus.Close()

		robot, err := sim.New(bus, sim.Options{
			Prefix:  cfg.Prefix,
			RateHz:  rate,
			Enabled: enabled,
			Logger:  log.Component("sim"),
		})
		if err != nil {
			return err
		}
		return robot.Run(ctx)
	},
}

func init() {
	simCmd.Flags().Float64("rate", 100, "physics and state publish rate in Hz")
	simCmd.Flags().Bool("enabled", false, "start with motors enabled")
	rootCmd.AddCommand(simCmd)
}
