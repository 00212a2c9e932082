package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/dubco-cli/internal/adapters/csvrows"
	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/application"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/spf13/cobra"
)

const (
	dryRunPreviewRows   = 10
	createdPreviewLinks = 5
)

type addOptions struct {
	request     domain.CreateLinkRequest
	tags        []string
	file        string
	dryRun      bool
	concurrency int
	asJSON      bool
}

func newAddCmd(app *app) *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Create a short link, or many from a CSV file",
		Example: `  dub add https://example.com/launch --key launch --tag marketing
  dub add --file links.csv --concurrency 4`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError(fmt.Errorf("expected at most one url, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.file != "" && len(args) > 0:
				return usageError(errors.New("pass either a url or --file, not both"))
			case opts.file != "":
				return runBulkAdd(cmd, app, opts)
			case len(args) == 1:
				opts.request.URL = strings.TrimSpace(args[0])
				return runSingleAdd(cmd, app, opts)
			default:
				return usageError(errors.New("either a url or --file is required"))
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.request.Key, "key", "k", "", "Custom short link slug")
	flags.StringVarP(&opts.request.Domain, "domain", "d", "", "Short link domain")
	flags.StringSliceVarP(&opts.tags, "tag", "t", nil, "Tag to apply (repeatable)")
	flags.StringVar(&opts.request.ExternalID, "external-id", "", "External ID to attach to the link")
	flags.StringVar(&opts.request.Comments, "comments", "", "Comments stored with the link")
	flags.StringVar(&opts.request.UTMSource, "utm-source", "", "UTM source parameter")
	flags.StringVar(&opts.request.UTMMedium, "utm-medium", "", "UTM medium parameter")
	flags.StringVar(&opts.request.UTMCampaign, "utm-campaign", "", "UTM campaign parameter")
	flags.StringVar(&opts.request.UTMTerm, "utm-term", "", "UTM term parameter")
	flags.StringVar(&opts.request.UTMContent, "utm-content", "", "UTM content parameter")
	flags.StringVarP(&opts.file, "file", "f", "", "CSV file for bulk creation")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be created without calling the API")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Parallel requests for bulk creation (default from config)")
	flags.BoolVar(&opts.asJSON, "json", false, "Print results as JSON")

	return cmd
}

func runSingleAdd(cmd *cobra.Command, app *app, opts *addOptions) error {
	req := opts.request
	req.TagNames = csvrows.SplitTags(strings.Join(opts.tags, ","))
	req = req.WithURLUTM()
	if err := req.Validate(); err != nil {
		return usageError(err)
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		if opts.asJSON {
			return writeJSON(out, req)
		}
		_, err := fmt.Fprintln(out, "Dry run - would create:\n"+describeRequest(req, "  "))
		return err
	}

	deps, err := app.dependencies(cmd.Context())
	if err != nil {
		return err
	}

	link, err := deps.service.CreateLink(cmd.Context(), req)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return writeJSON(out, link)
	}
	_, err = fmt.Fprintln(out, console.LinkCreated(link))
	return err
}

func runBulkAdd(cmd *cobra.Command, app *app, opts *addOptions) error {
	parsed, err := csvrows.ParseFile(opts.file)
	if err != nil {
		return usageError(err)
	}

	errOut := cmd.ErrOrStderr()
	invalid := parsed.Invalid()
	if len(invalid) > 0 {
		_, _ = fmt.Fprintln(errOut, "Validation errors:")
		for _, row := range invalid {
			_, _ = fmt.Fprintf(errOut, "  Row %d: %v\n", row.Number, row.Err)
		}
	}

	valid := parsed.Valid()
	if len(valid) == 0 {
		return usageError(errors.New("no valid rows to process"))
	}
	_, _ = fmt.Fprintf(errOut, "Found %d valid rows", len(valid))
	if len(invalid) > 0 {
		_, _ = fmt.Fprintf(errOut, ", skipping %d invalid", len(invalid))
	}
	_, _ = fmt.Fprintln(errOut)

	out := cmd.OutOrStdout()
	if opts.dryRun {
		lines := []string{"Dry run - would create:"}
		for i, row := range valid {
			if i == dryRunPreviewRows {
				lines = append(lines, fmt.Sprintf("  ... and %d more", len(valid)-dryRunPreviewRows))
				break
			}
			lines = append(lines, fmt.Sprintf("  Row %d:", row.Number), describeRequest(row.Request, "    "))
		}
		_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
		return err
	}

	deps, err := app.dependencies(cmd.Context())
	if err != nil {
		return err
	}

	requests := parsed.Requests()
	summary, err := runBulk(cmd, deps.service, fmt.Sprintf("Creating %d links...", len(requests)), len(requests), opts.concurrency,
		func(ctx context.Context, svc *application.Service) (domain.BulkSummary, error) {
			return svc.CreateLinks(ctx, requests)
		})
	if err != nil {
		return err
	}

	if err := writeBulkSummary(cmd, "Created", summary, opts.asJSON); err != nil {
		return err
	}
	if !opts.asJSON {
		writeCreatedPreview(cmd, summary)
	}

	return bulkExit(summary)
}

func writeCreatedPreview(cmd *cobra.Command, summary domain.BulkSummary) {
	out := cmd.OutOrStdout()
	for i, result := range summary.Succeeded {
		if i == createdPreviewLinks {
			_, _ = fmt.Fprintf(out, "  ... and %d more\n", len(summary.Succeeded)-createdPreviewLinks)
			return
		}
		link, err := application.DecodeLink(result.Outcome)
		if err != nil || link.ShortLink == "" {
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s -> %s\n", link.ShortLink, link.URL)
	}
}

func describeRequest(req domain.CreateLinkRequest, indent string) string {
	lines := []string{indent + "URL: " + req.URL}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, indent+label+": "+value)
		}
	}
	add("Key", req.Key)
	add("Domain", req.Domain)
	add("Tags", strings.Join(req.TagNames, ", "))
	add("External ID", req.ExternalID)
	add("utm_source", req.UTMSource)
	add("utm_medium", req.UTMMedium)
	add("utm_campaign", req.UTMCampaign)
	add("utm_term", req.UTMTerm)
	add("utm_content", req.UTMContent)
	return strings.Join(lines, "\n")
}
