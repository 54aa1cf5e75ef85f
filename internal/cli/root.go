// Package cli implements the conntrace command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "conntrace",
	Short: "CGNAT connection-log query and report service",
	Long: `conntrace queries a NAT/CGNAT connection-log store by subscriber IP,
public IP, port and time range, and produces verifiable CSV/PDF export
artifacts with embedded content hashes and a signed audit trail.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/conntrace/config.yaml)")
}
