package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func contentCMD(cfgPath *string) *cobra.Command {
	var orgID string

	content := &cobra.Command{
		Use:   "content",
		Short: "Inspect or delete content items",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org is required")
			}
			return nil
		},
	}
	content.PersistentFlags().StringVar(&orgID, "org", "", "organization id")

	var moduleID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List a module's content items; stale writing items are failed first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			items, err := a.store.ListContentItems(ctx, orgID, moduleID, time.Now().Add(-a.cfg.Sweep.StaleAfter))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}
	list.Flags().Int64Var(&moduleID, "module", 0, "module id")

	var id int64
	get := &cobra.Command{
		Use:   "get",
		Short: "Show a content item with its articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			item, err := a.store.GetContentItem(ctx, orgID, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), item)
		},
	}
	get.Flags().Int64Var(&id, "id", 0, "content item id")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Soft delete a content item and its articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			if err := a.store.SoftDeleteContentItem(ctx, orgID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "content item %d deleted\n", id)
			return nil
		},
	}
	del.Flags().Int64Var(&id, "id", 0, "content item id")

	content.AddCommand(list, get, del)
	return content
}
