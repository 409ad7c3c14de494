package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/contentagent/internal/assets"
)

func ingestCMD(cfgPath *string) *cobra.Command {
	var accessID int64
	var uploads string

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Describe, embed and store uploaded images for an organization module",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessID <= 0 {
				return errors.New("--access is required")
			}
			var ups []assets.ImageUpload
			if err := readJSONArg(uploads, &ups); err != nil {
				return err
			}
			if len(ups) == 0 {
				return errors.New("no uploads given")
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			in := assets.NewIngestor(a.llm, a.llm, a.store, a.cfg.Assets.PublicBaseURL, newLogger("[INGEST] "))
			failed := 0
			for _, r := range in.Ingest(ctx, accessID, ups) {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", r.Upload.Filename, r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s id=%d\n", r.Upload.Filename, r.Asset.ID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(ups))
			}
			return nil
		},
	}
	ingest.Flags().Int64Var(&accessID, "access", 0, "org module access id that scopes the asset library")
	ingest.Flags().StringVar(&uploads, "uploads", "", "JSON list of {filename, unique_filename, content_type}, or @file")
	return ingest
}
