package cmd

import (
	"fmt"

	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/spf13/cobra"
)

const defaultListLimit = 50

func newListCmd(app *app) *cobra.Command {
	var (
		filter domain.ListLinksFilter
		sort   string
		format string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List links in the workspace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFormat, err := console.ParseFormat(format)
			if err != nil {
				return usageError(err)
			}
			filter.Sort = domain.LinkSort(sort)
			if !filter.Sort.Valid() {
				return usageError(fmt.Errorf("invalid sort %q: use createdAt, clicks or updatedAt", sort))
			}
			if filter.Limit < 0 {
				return usageError(fmt.Errorf("limit must not be negative, got %d", filter.Limit))
			}

			deps, err := app.dependencies(cmd.Context())
			if err != nil {
				return err
			}

			links, err := deps.service.ListLinks(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rendered, err := console.Links(links, outputFormat)
			if err != nil {
				return err
			}
			if rendered == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&filter.Domain, "domain", "d", "", "Filter by domain")
	flags.StringSliceVarP(&filter.Tags, "tag", "t", nil, "Filter by tag name (repeatable)")
	flags.StringVarP(&filter.Search, "search", "s", "", "Search in URLs and keys")
	flags.IntVarP(&filter.Limit, "limit", "n", defaultListLimit, "Maximum number of links to show (0 for all)")
	flags.StringVar(&sort, "sort", string(domain.SortCreatedAt), "Sort by createdAt, clicks or updatedAt")
	flags.StringVarP(&format, "format", "o", string(console.FormatTable), "Output format: table, json, csv or plain")

	return cmd
}
