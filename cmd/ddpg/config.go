package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/goddpg/agent/ddpg"
	"github.com/spf13/cobra"
)

func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default agent configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(ddpg.DefaultConfig(), "", "\t")
			if err != nil {
				return fmt.Errorf("config: %v", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// loadConfig loads the agent configuration at path, or the default
// configuration if path is empty
func loadConfig(path string) (ddpg.Config, error) {
	if path == "" {
		return ddpg.DefaultConfig(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return ddpg.Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	defer file.Close()

	return ddpg.LoadConfig(file)
}
