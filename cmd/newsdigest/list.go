package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
)

var (
	listLimit      int
	listCategory   string
	listOrder      string
	listCategories bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print recently stored articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		application, err := app.New(ctx, cfg, logging.New(cfg.Logging.Level))
		if err != nil {
			return err
		}
		defer application.Close()

		if listCategories {
			categories, err := application.Categories(ctx)
			if err != nil {
				return err
			}
			for _, category := range categories {
				fmt.Println(category)
			}
			return nil
		}

		articles, err := application.ListArticles(ctx, domain.ArticleQuery{
			Limit:    listLimit,
			Category: listCategory,
			OrderBy:  listOrder,
			Desc:     true,
		})
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("no articles stored yet")
			return nil
		}

		for _, article := range articles {
			published := "                "
			if article.PublishedAt != nil {
				published = article.PublishedAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s  %-16s  %s\n", published, article.SourceName, article.Title)
			fmt.Printf("%18s%s\n", "", article.ArticleURL)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum articles to print")
	listCmd.Flags().StringVar(&listCategory, "category", "",
		"filter by source category (News folds in General and World)")
	listCmd.Flags().StringVar(&listOrder, "order", "published_at",
		"order by published_at or created_at")
	listCmd.Flags().BoolVar(&listCategories, "categories", false,
		"print the known categories instead of articles")
	rootCmd.AddCommand(listCmd)
}
