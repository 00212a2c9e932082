package cmd

import (
	"github.com/bnema/dubco-cli/internal/adapters/credentials"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/spf13/cobra"
)

func Execute() error {
	defer logging.Close()
	return newRootCmd().Execute()
}

type globalOptions struct {
	profile string
	verbose bool
	logFile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "dub",
		Short:         "Dub.co CLI: shorten, list and manage links",
		Long:          "dub signs in to Dub.co with OAuth, creates short links one at a time or in bulk from CSV, and lists, inspects and deletes links from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Configure(logging.Options{Verbose: opts.verbose, LogFile: opts.logFile})
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.profile, "profile", credentials.DefaultProfile, "Credential profile to use")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	app, err := wireApp(opts)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoAmICmd(app),
		newAddCmd(app),
		newRmCmd(app),
		newListCmd(app),
		newStatsCmd(app),
	)

	return rootCmd
}
