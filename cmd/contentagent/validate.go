package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/contentagent/internal/pipeline"
	"github.com/mohammad-safakhou/contentagent/models"
)

func validateCMD(cfgPath *string) *cobra.Command {
	var orgID, form string

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check form data against the organization's validation prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org is required")
			}
			var fd models.FormData
			if err := readJSONArg(form, &fd); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			res, err := pipeline.NewFormValidator(a.llm, a.store, a.cfg.LLM.Models.Validation).Validate(ctx, orgID, fd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	validate.Flags().StringVar(&orgID, "org", "", "organization id")
	validate.Flags().StringVar(&form, "form", "{}", "form data as JSON, or @file")
	return validate
}
