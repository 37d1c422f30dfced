package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pevans/technews/collection"
)

var newsCmd = &cobra.Command{
	Use:   "news [search term]",
	Short: "Fetch, search and page through the news collection",
	Long: `Fetches the collection for a country (ALL merges Portuguese and English,
BR is Portuguese, US is English), filters it by the optional search term
ignoring case and accents, and prints one page.

Example:
  technews news --country BR --page 2 inteligência artificial`,
	RunE: runNews,
}

func init() {
	newsCmd.Flags().String("country", collection.CountryAll, "Country selector: ALL, BR or US")
	newsCmd.Flags().Int("page", 1, "Page to show")
	newsCmd.Flags().Int("per-page", collection.DefaultPerPage, "Articles per page")
	newsCmd.Flags().String("format", "table", "Output format: table, json")
}

func runNews(cmd *cobra.Command, args []string) error {
	country, _ := cmd.Flags().GetString("country")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	format, _ := cmd.Flags().GetString("format")

	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	articles, err := pipeline.FetchCountry(cmd.Context(), strings.ToUpper(country))
	if err != nil {
		return err
	}

	term := strings.Join(args, " ")
	p := collection.Paginate(collection.Search(articles, term), perPage, page)

	switch format {
	case "json":
		return printJSON(cmd.OutOrStdout(), p)
	case "table":
		printArticlesTable(cmd.OutOrStdout(), p)
		return nil
	}
	return fmt.Errorf("unknown format: %s", format)
}
