package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/confirm"
	"github.com/teslashibe/go-rsdk/pkg/head"
)

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Read and command the head.",
}

var headStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the current head state.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHead(cmd, func(h *head.Head) error {
			s, err := h.State()
			if err != nil {
				return err
			}
			fmt.Printf("pan: %.4f rad  panning: %v  nodding: %v\n", s.Pan, s.Panning, s.Nodding)
			return nil
		})
	},
}

var headPanCmd = &cobra.Command{
	Use:   "pan <angle>",
	Short: "Pan the head to an angle in radians.",
	Long: "Pan the head to an angle in radians. With --timeout 0 the " +
		"command is sent once; otherwise rsdk waits until the head arrives.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		angle, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid angle %q: %w", args[0], err)
		}
		speed, _ := cmd.Flags().GetInt("speed")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		return withHead(cmd, func(h *head.Head) error {
			res, err := h.SetPan(cmd.Context(), angle, head.PanOptions{Speed: speed, Timeout: timeout})
			return report(res, err)
		})
	},
}

var headNodCmd = &cobra.Command{
	Use:   "nod",
	Short: "Nod the head once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHead(cmd, func(h *head.Head) error {
			return report(h.CommandNod(cmd.Context()))
		})
	},
}

func init() {
	headPanCmd.Flags().Int("speed", head.DefaultSpeed, "pan speed, 1-100")
	headPanCmd.Flags().Duration("timeout", 0, "how long to wait for the head to arrive (0 = don't wait)")

	headCmd.AddCommand(headStateCmd, headPanCmd, headNodCmd)
	rootCmd.AddCommand(headCmd)
}

// withHead connects, waits for head state and runs fn.
func withHead(cmd *cobra.Command, fn func(h *head.Head) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	bus, err := connect(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	fmt.Println("Getting robot state...")
	h, err := head.New(ctx, bus, head.Options{
		Prefix:    cfg.Prefix,
		Tolerance: cfg.JointAngleTolerance,
		RateHz:    cfg.HeadRateHz,
		Logger:    log.Component("head"),
	})
	if err != nil {
		return ignoreShutdown(ctx.Err(), err)
	}
	defer h.Close()

	return fn(h)
}

func report(res confirm.Result, err error) error {
	if err != nil {
		return err
	}
	switch res.Outcome {
	case confirm.Shutdown:
		fmt.Println("terminated")
	case confirm.FireAndForget:
		fmt.Println("sent")
	default:
		fmt.Printf("done (%d ticks)\n", res.Ticks)
	}
	return nil
}
