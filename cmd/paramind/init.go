package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/paramind/paramind/internal/config"
)

func newInitCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".paramind", "config.json")
			if global {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("getting home directory: %w", err)
				}
				path = filepath.Join(home, ".paramind", "config.json")
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}

			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return err
			}

			cmd.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to ~/.paramind instead of the project directory")

	return cmd
}
