package main

import (
	"encoding/json"
	"fmt"

	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a new tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		var resp map[string]string
		td := types.TenantDescriptor{ID: args[0], Name: name}
		if err := adminClientFor(cmd).do("POST", "/tenants", td, &resp); err != nil {
			return err
		}
		fmt.Printf("tenant created: %s\n", resp["id"])
		return nil
	},
}

var tenantGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var tenant types.Tenant
		if err := adminClientFor(cmd).do("GET", "/tenants/"+args[0], nil, &tenant); err != nil {
			return err
		}
		return printJSON(tenant)
	},
}

func init() {
	tenantCreateCmd.Flags().String("name", "", "display name for the tenant")
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantGetCmd)
}

func adminClientFor(cmd *cobra.Command) *adminClient {
	addr, _ := cmd.Flags().GetString("addr")
	return newAdminClient(addr)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
