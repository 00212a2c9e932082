package cmd

import (
	"fmt"
	"strings"
	"time"

	authadapter "github.com/bnema/dubco-cli/internal/adapters/auth"
	"github.com/bnema/dubco-cli/internal/adapters/render/console"
	"github.com/bnema/dubco-cli/internal/domain"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		clientID  string
		noBrowser bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Dub.co with OAuth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			deps, err := app.dependencies(ctx)
			if err != nil {
				return err
			}

			clientID = strings.TrimSpace(clientID)
			if clientID != "" && clientID != deps.settings.ClientID {
				if err := app.settings.Update(ctx, func(s *domain.Settings) {
					s.ClientID = clientID
				}); err != nil {
					return fmt.Errorf("save client id: %w", err)
				}
			}
			if clientID == "" {
				clientID = deps.settings.ClientID
			}
			if clientID == "" {
				return usageError(fmt.Errorf("%w: run `dub login --client-id <id>` or set DUB_CLIENT_ID", domain.ErrMissingClientID))
			}

			var opts []authadapter.Option
			if noBrowser {
				opts = append(opts, authadapter.WithBrowserOpener(nil))
			}
			authenticator := app.authenticator(deps.settings, deps.credentials, clientID, timeout, opts...)

			session, err := authenticator.BeginLogin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			errOut := cmd.ErrOrStderr()
			if noBrowser {
				_, _ = fmt.Fprintf(errOut, "Open this URL to authenticate with Dub.co:\n%s\n", session.AuthURL())
			} else {
				_, _ = fmt.Fprintf(errOut, "Opening your browser to authenticate with Dub.co...\nIf it does not open, visit:\n%s\n", session.AuthURL())
			}

			if _, err := session.Complete(ctx); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Logged in to Dub.co.")

			workspace, err := deps.service.WhoAmI(ctx)
			if err != nil {
				log.Warnf("login: fetch workspace details: %v", err)
				_, _ = fmt.Fprintf(errOut, "Could not fetch workspace details: %v\n", err)
				return nil
			}
			_, err = fmt.Fprintln(out, console.Workspace(workspace))
			return err
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client ID of your Dub.co app (saved to config)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", authadapter.DefaultLoginTimeout, "How long to wait for the browser callback")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := app.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			if err := deps.credentials.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear credentials: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		},
	}
}

func newWhoAmICmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user and workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := app.dependencies(cmd.Context())
			if err != nil {
				return err
			}

			workspace, err := deps.service.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), workspace)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), console.Workspace(workspace))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print workspace details as JSON")

	return cmd
}
