package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/contentagent/internal/queue/streams"
	"github.com/mohammad-safakhou/contentagent/models"
)

func enqueueCMD(cfgPath *string) *cobra.Command {
	var orgID, moduleSlug, form, requestedBy string
	var moduleID int64

	enqueue := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a content.requested event for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" || (moduleID <= 0 && moduleSlug == "") {
				return errors.New("--org and one of --module or --module-slug are required")
			}
			var fd models.FormData
			if err := readJSONArg(form, &fd); err != nil {
				return fmt.Errorf("--form: %w", err)
			}
			if err := fd.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if moduleID <= 0 {
				m, err := a.store.GetModuleBySlugForOrg(ctx, orgID, moduleSlug)
				if err != nil {
					return err
				}
				moduleID = m.ID
			}

			id, err := streams.NewPublisher(a.rdb, a.registry).PublishEvent(ctx, a.cfg.Queue.RequestStream, streams.EventContentRequested,
				streams.ContentRequested{OrgID: orgID, ModuleID: moduleID, FormData: fd, RequestedBy: requestedBy})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	enqueue.Flags().StringVar(&orgID, "org", "", "organization id")
	enqueue.Flags().Int64Var(&moduleID, "module", 0, "module id")
	enqueue.Flags().StringVar(&moduleSlug, "module-slug", "", "module slug, resolved through the organization's access")
	enqueue.Flags().StringVar(&form, "form", "{}", "form data as JSON, or @file")
	enqueue.Flags().StringVar(&requestedBy, "requested-by", "cli", "requester recorded on the event")
	return enqueue
}
