package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oetools/oequery/pkg/session"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the persisted OpenEvidence session",
	}
	cmd.AddCommand(
		newAuthSetupCmd(),
		newAuthStatusCmd(),
		newAuthValidateCmd(),
		newAuthReauthCmd(),
		newAuthClearCmd(),
	)
	return cmd
}

func newAuthSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Sign in interactively and persist the session",
		Long: `Opens a visible browser on the OpenEvidence sign-in page and waits for
you to complete authentication. The wait is unbounded; close the browser
window to abort. On success the session is saved for later 'oeq ask' runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			printTo(cmd, "Opening browser for sign-in. Complete authentication in the window...")
			if err := a.mgr.Setup(cmd.Context()); err != nil {
				return err
			}
			printTo(cmd, "Session saved. You can now run 'oeq ask'.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report on the stored session without opening a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			presence, meta, err := a.mgr.Status()
			if err != nil {
				return err
			}
			printTo(cmd, "Session:  %s", presence)
			if meta != nil {
				printTo(cmd, "Provider: %s", meta.Provider)
				printTo(cmd, "Created:  %s", meta.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				if !meta.LastValidatedAt.IsZero() {
					printTo(cmd, "Checked:  %s", meta.LastValidatedAt.Local().Format("2006-01-02 15:04:05"))
				}
			}
			if presence == session.PresenceAbsent {
				printTo(cmd, "Run 'oeq auth setup' to sign in.")
			}
			return nil
		},
	}
}

func newAuthValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored session against the live site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ok, err := a.mgr.Validate(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("stored session failed validation: %w (run 'oeq auth reauth')", session.ErrNotAuthenticated)
			}
			printTo(cmd, "Session is valid.")
			return nil
		},
	}
}

func newAuthReauthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reauth",
		Short: "Discard the stored session and sign in again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			printTo(cmd, "Clearing stored session and opening browser for sign-in...")
			if err := a.mgr.Reauth(cmd.Context()); err != nil {
				return err
			}
			printTo(cmd, "Session saved.")
			return nil
		},
	}
}

func newAuthClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted authentication material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.mgr.Clear(); err != nil {
				return err
			}
			printTo(cmd, "Session cleared.")
			return nil
		},
	}
}
