package main

import (
	"fmt"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/spf13/cobra"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Enable or disable a tenant's modules",
}

var moduleEnableCmd = &cobra.Command{
	Use:   "enable <tenant-id> <module-id>",
	Short: "Enable a module for a tenant, optionally replacing one being disabled",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		req := map[string]any{
			"moduleTo": types.TenantModuleDescriptor{ID: args[1]},
		}
		if from != "" {
			req["moduleFrom"] = from
		}
		var resp map[string]string
		if err := adminClientFor(cmd).do("POST", "/tenants/"+args[0]+"/modules", req, &resp); err != nil {
			return err
		}
		fmt.Printf("module enabled: %s\n", resp["moduleId"])
		return nil
	},
}

var moduleDisableCmd = &cobra.Command{
	Use:   "disable <tenant-id> <module-id>",
	Short: "Disable a module for a tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{"moduleFrom": args[1]}
		var resp map[string]string
		if err := adminClientFor(cmd).do("POST", "/tenants/"+args[0]+"/modules", req, &resp); err != nil {
			return err
		}
		fmt.Println("module disabled")
		return nil
	},
}

func init() {
	moduleEnableCmd.Flags().String("from", "", "module id being replaced, if any")
	moduleCmd.AddCommand(moduleEnableCmd)
	moduleCmd.AddCommand(moduleDisableCmd)
}
