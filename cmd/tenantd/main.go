package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tenantd",
	Short: "tenantd - tenant lifecycle manager for a multi-tenant API gateway",
	Long: `tenantd owns tenant state, module dependency resolution,
install/upgrade job orchestration and per-tenant enabled-module routing
for a multi-tenant API gateway.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "tenantd.yaml", "path to the tenantd config file")
	rootCmd.PersistentFlags().String("addr", "http://127.0.0.1:8080", "tenantd admin API address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tenantCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(jobCmd)
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
