package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/application"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// runBulk runs fn behind a progress spinner on stderr. concurrency overrides
// the configured value when positive.
func runBulk(
	cmd *cobra.Command,
	svc *application.Service,
	label string,
	total int,
	concurrency int,
	fn func(context.Context, *application.Service) (domain.BulkSummary, error),
) (domain.BulkSummary, error) {
	var summary domain.BulkSummary

	err := console.RunWithProgress(cmd.Context(), cmd.ErrOrStderr(), label, total, func(ctx context.Context, progress console.Progress) error {
		opts := []application.OrchestratorOption{
			application.WithProgress(func(done, total int, _ domain.BulkItemResult) {
				progress(done, total)
			}),
		}
		if concurrency > 0 {
			opts = append(opts, application.WithConcurrency(concurrency))
		}

		var err error
		summary, err = fn(ctx, svc.WithBulk(opts...))
		return err
	})

	return summary, err
}

func writeBulkSummary(cmd *cobra.Command, verb string, summary domain.BulkSummary, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		rendered, err := console.BulkSummaryJSON(summary)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	}

	_, err := fmt.Fprintln(out, console.BulkSummary(verb, summary))
	return err
}
