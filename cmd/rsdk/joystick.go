package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/dashboard"
	"github.com/teslashibe/go-rsdk/pkg/dispatch"
	"github.com/teslashibe/go-rsdk/pkg/joystick"
	"github.com/teslashibe/go-rsdk/pkg/limb"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/teleop"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

var joystickCmd = &cobra.Command{
	Use:   "joystick <xbox|logitech>",
	Short: "Drive both arms with a joystick.",
	Long: "Map joystick input to joint position commands. Gamepad " +
		"snapshots arrive on the operator gamepad topic or, with " +
		"--dashboard, from a browser connected to /ws/gamepad.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{joystick.Xbox.Name, joystick.Logitech.Name},
	RunE:      runJoystick,
}

func init() {
	joystickCmd.Flags().String("dashboard", "", "serve the operator dashboard on this address (default DASHBOARD_ADDR)")
	rootCmd.AddCommand(joystickCmd)
}

func runJoystick(cmd *cobra.Command, args []string) error {
	js, err := joystick.ByName(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	bus, err := connect(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	opts := limb.Options{Prefix: cfg.Prefix, Logger: log.Component("limb")}

	fmt.Println("Getting robot state...")
	left, err := limb.New(ctx, bus, "left", opts)
	if err != nil {
		return ignoreShutdown(ctx.Err(), err)
	}
	defer left.Close()
	right, err := limb.New(ctx, bus, "right", opts)
	if err != nil {
		return ignoreShutdown(ctx.Err(), err)
	}
	defer right.Close()

	topics := transport.NewTopics(cfg.Prefix)
	sub, err := bus.Subscribe(topics.Gamepad(), js.Handler())
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	keys, err := joystick.WatchTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("watch keyboard: %w", err)
	}
	defer keys.Close()

	var out io.Writer = os.Stdout
	if keys.Raw() {
		out = crlfWriter{os.Stdout}
		log.SetOutput(out)
		defer log.SetOutput(os.Stdout)
	}

	sinks := dispatch.MultiSink{dispatch.LabelSinkFunc(func(label string) {
		fmt.Fprintln(out, label)
	})}

	addr, _ := cmd.Flags().GetString("dashboard")
	if addr == "" {
		addr = cfg.DashboardAddr
	}
	if addr != "" {
		dash := dashboard.New(dashboard.Options{Addr: addr, Logger: log.Component("dashboard")})
		dash.OnGamepad(func(_ string, s protocol.GamepadState) { js.Update(s) })
		dash.AddStatus("transport", func() any { return bus.Stats() })
		dash.AddStatus("joystick", func() any { return js.Layout().Name })
		sinks = append(sinks, dash)
		go func() {
			if err := dash.Run(ctx); err != nil {
				log.Error("dashboard stopped", "error", err)
			}
		}()
		fmt.Fprintf(out, "Dashboard: http://localhost%s\n", addr)
	}

	engine := dispatch.New(dispatch.Config{
		RateHz: cfg.DispatchRateHz,
		Stop:   keys,
		Input:  js,
		Sink:   sinks,
		Logger: log.Component("dispatch"),
	})
	if err := engine.AddTarget(left.Side(), left); err != nil {
		return err
	}
	if err := engine.AddTarget(right.Side(), right); err != nil {
		return err
	}

	bindings := teleop.Map(js,
		teleop.Arm{Name: left.Side(), Joints: left, Gripper: limb.NewGripper(bus, "left", opts)},
		teleop.Arm{Name: right.Side(), Joints: right, Gripper: limb.NewGripper(bus, "right", opts)},
	)
	if err := engine.Bind(bindings...); err != nil {
		return err
	}

	fmt.Fprintln(out, "Enabling robot...")
	term, err := teleop.Session{
		Engine: engine,
		Robot:  limb.NewRobotEnable(bus, opts),
		Logger: log.Component("teleop"),
	}.Run(ctx)
	if err != nil {
		return err
	}
	if term == dispatch.UserStopped {
		fmt.Fprintln(out, "done")
	}
	return nil
}

// ignoreShutdown drops err when it only reports that ctx was cancelled.
func ignoreShutdown(ctxErr, err error) error {
	if ctxErr != nil && errors.Is(err, ctxErr) {
		fmt.Println("terminated")
		return nil
	}
	return err
}

// crlfWriter adds the carriage returns a raw-mode terminal no longer
// inserts.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
