package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <identifier>",
		Short: "Log in and persist a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			if _, err := app.service(cmd.Context()); err != nil {
				return err
			}

			session, err := app.lifecycle.Login(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (session expires %s)\n",
				session.AccountID, session.ExpiresAtTime().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(app *app) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			if _, err := app.service(cmd.Context()); err != nil {
				return err
			}

			session, err := app.lifecycle.Register(cmd.Context(), username, email, password)
			if err != nil {
				if message := app.lifecycle.LastError(); message != "" {
					return fmt.Errorf("%s", message)
				}
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", session.AccountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Desired username")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.lifecycle.Logout(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
