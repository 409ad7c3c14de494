package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func articlesCMD(cfgPath *string) *cobra.Command {
	var orgID, slug string
	var limit int

	articles := &cobra.Command{
		Use:   "articles",
		Short: "List published articles, or print one by its page path",
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
				art, err := a.store.GetArticleBySlug(ctx, orgID, slug)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), art)
			}
			list, err := a.store.ListPublishedArticles(ctx, orgID, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
	articles.Flags().StringVar(&orgID, "org", "", "organization id")
	articles.Flags().StringVar(&slug, "slug", "", "page path of a single article")
	articles.Flags().IntVar(&limit, "limit", 50, "maximum articles to list")
	return articles
}
