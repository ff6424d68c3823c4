package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ply",
		Short:         "Parley CLI (ply): chat client sessions, servers and channel layout",
		Long:          "ply is the terminal shell for the Parley chat client core: it restores or creates sessions, probes the chat service, and renders and reorders servers, categories and channels.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newServersCmd(app),
		newTreeCmd(app),
		newSendCmd(app),
		newMoveCmd(app),
	)

	return rootCmd
}
