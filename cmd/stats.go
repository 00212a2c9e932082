package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *app) *cobra.Command {
	var (
		domainName string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stats <key-or-id>",
		Short: "Show click, lead and sale counts for a link",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError(fmt.Errorf("expected one key or ID, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.dependencies(cmd.Context())
			if err != nil {
				return err
			}

			link, err := deps.service.ResolveLink(cmd.Context(), args[0], domainName)
			if err != nil {
				if errors.Is(err, domain.ErrLinkNotFound) && domainName == "" && !domain.LooksLikeLinkID(args[0]) {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Tip: pass --domain when looking up a link by key.")
				}
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), link)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), console.LinkStats(link))
			return err
		},
	}

	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "Domain used to look up the link by key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the link as JSON")

	return cmd
}
