// Command ddpg trains a DDPG agent on the continuous pendulum swing-up
// task.
//
// Environment variables may be set in a .env file in the working
// directory:
//
//	DDPG_SEED    seed used when --seed is not given
//	DDPG_CONFIG  agent configuration used when --config is not given
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ddpg",
		Short: "Train Deep Deterministic Policy Gradient agents",
	}
	rootCmd.AddCommand(trainCommand(), configCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
