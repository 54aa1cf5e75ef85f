package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conntrace-systems/conntrace/internal/config"
)

var configOutFlag string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with defaults",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().StringVarP(&configOutFlag, "output", "o", "config.yaml", "output path")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configOutFlag); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", configOutFlag)
	}

	// Loading with no file yields the defaults.
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("build defaults: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configOutFlag, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configOutFlag, err)
	}

	fmt.Printf("wrote %s\n", configOutFlag)
	return nil
}
