package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/application"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/spf13/cobra"
)

const deletionPreviewLinks = 10

type rmOptions struct {
	domain      string
	file        string
	force       bool
	idempotent  bool
	concurrency int
	asJSON      bool
}

func newRmCmd(app *app) *cobra.Command {
	opts := &rmOptions{}

	cmd := &cobra.Command{
		Use:     "rm [key-or-id...]",
		Aliases: []string{"delete"},
		Short:   "Delete links by key, ID or external ID",
		Example: `  dub rm my-link -d dub.sh
  dub rm clx1234567890 clx0987654321
  dub rm --file to-delete.txt --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := collectRefs(args, opts.file)
			if err != nil {
				return err
			}
			return runRm(cmd, app, opts, refs)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.domain, "domain", "d", "", "Domain used to look up links by key")
	flags.StringVarP(&opts.file, "file", "f", "", "File with one key or ID per line")
	flags.BoolVar(&opts.force, "force", false, "Delete without asking for confirmation")
	flags.BoolVar(&opts.idempotent, "idempotent", false, "Treat links that are already gone as deleted")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Parallel delete requests (default from config)")
	flags.BoolVar(&opts.asJSON, "json", false, "Print results as JSON")

	return cmd
}

func collectRefs(args []string, file string) ([]string, error) {
	refs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			refs = append(refs, arg)
		}
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, usageError(fmt.Errorf("read %s: %w", file, err))
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				refs = append(refs, line)
			}
		}
	}

	if len(refs) == 0 {
		return nil, usageError(errors.New("no links specified: pass keys or IDs, or use --file"))
	}
	return refs, nil
}

func runRm(cmd *cobra.Command, app *app, opts *rmOptions, refs []string) error {
	ctx := cmd.Context()
	deps, err := app.dependencies(ctx)
	if err != nil {
		return err
	}

	resolved, err := deps.service.ResolveLinks(ctx, application.ResolveLinksQuery{Refs: refs, Domain: opts.domain})
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	for _, ref := range resolved.Missing {
		_, _ = fmt.Fprintf(errOut, "Link not found: %s\n", ref)
	}

	out := cmd.OutOrStdout()
	if len(resolved.Found) == 0 {
		if opts.idempotent {
			_, err := fmt.Fprintln(out, "Nothing to delete.")
			return err
		}
		return withExitCode(ExitNotFound, fmt.Errorf("%w: no links found to delete", domain.ErrLinkNotFound))
	}

	if !opts.force {
		_, _ = fmt.Fprintln(errOut, console.DeletionPreview(resolved.Found, deletionPreviewLinks))
		if clicks := resolved.TotalClicks(); clicks > 0 {
			_, _ = fmt.Fprintf(errOut, "Warning: these links have %d total clicks.\n", clicks)
		}

		confirmed, err := confirm(cmd.InOrStdin(), errOut, "Continue with deletion?")
		if err != nil {
			return err
		}
		if !confirmed {
			_, err := fmt.Fprintln(out, "Aborted.")
			return err
		}
	}

	command := application.DeleteLinksCommand{Links: resolved.Found, Idempotent: opts.idempotent}
	summary, err := runBulk(cmd, deps.service, fmt.Sprintf("Deleting %d links...", len(command.Links)), len(command.Links), opts.concurrency,
		func(ctx context.Context, svc *application.Service) (domain.BulkSummary, error) {
			return svc.DeleteLinks(ctx, command)
		})
	if err != nil {
		return err
	}

	if err := writeBulkSummary(cmd, "Deleted", summary, opts.asJSON); err != nil {
		return err
	}
	return bulkExit(summary)
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", question)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
