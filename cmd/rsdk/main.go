// Command rsdk drives the robot's head and arms over the configured
// transport. With the default memory transport it runs against an
// in-process simulator.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
