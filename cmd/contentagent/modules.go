package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func modulesCMD(cfgPath *string) *cobra.Command {
	var orgID, slug string

	modules := &cobra.Command{
		Use:   "modules",
		Short: "List the modules an organization can use, or show one by slug",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org is required")
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if slug != "" {
				m, err := a.store.GetModuleBySlugForOrg(ctx, orgID, slug)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), m)
			}
			ms, err := a.store.ListModulesForOrg(ctx, orgID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ms)
		},
	}
	modules.Flags().StringVar(&orgID, "org", "", "organization id")
	modules.Flags().StringVar(&slug, "slug", "", "show a single module by slug")
	return modules
}
