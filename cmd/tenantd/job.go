package main

import (
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Submit and poll install/upgrade jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create <tenant-id> <module-id>...",
	Short: "Submit a multi-module install/upgrade plan for a tenant",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		preRelease, _ := cmd.Flags().GetBool("pre-release")

		plan := make([]*types.TenantModuleDescriptor, 0, len(args)-1)
		for _, id := range args[1:] {
			plan = append(plan, &types.TenantModuleDescriptor{ID: id, Action: types.ActionEnable})
		}

		req := map[string]any{
			"plan":    plan,
			"options": types.InstallOptions{PreRelease: preRelease},
		}
		var job types.InstallJob
		if err := adminClientFor(cmd).do("POST", "/tenants/"+args[0]+"/jobs", req, &job); err != nil {
			return err
		}
		return printJSON(job)
	},
}

var jobGetCmd = &cobra.Command{
	Use:   "get <tenant-id> <job-id>",
	Short: "Show an install/upgrade job's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var job types.InstallJob
		if err := adminClientFor(cmd).do("GET", "/tenants/"+args[0]+"/jobs/"+args[1], nil, &job); err != nil {
			return err
		}
		return printJSON(job)
	},
}

func init() {
	jobCreateCmd.Flags().Bool("pre-release", false, "allow pre-release module versions")
	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobGetCmd)
}
