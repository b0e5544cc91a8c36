package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/chat"
)

func (a *app) newLoginCmd() *cobra.Command {
	var headed bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the form and save the storage state",
		Long: `Login always uses the form, then writes the session cookies to
storage_state so later runs can skip it. Use --headed to watch it, or to
get past a checkpoint by hand within the login timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if headed {
				cfg.Headless = false
			}

			sess, err := a.newSession(cmd.Context(), cfg, chat.Options{FreshLogin: true})
			if err != nil {
				return setupError(err)
			}
			defer func() { _ = sess.Close() }()

			if err := sess.Login(cmd.Context()); err != nil {
				return setupError(err)
			}
			if cfg.StorageState == "" {
				fmt.Fprintln(a.stdout, "logged in (storage_state is empty, nothing saved)")
				return nil
			}
			fmt.Fprintf(a.stdout, "logged in; storage state saved to %s\n", cfg.StorageState)
			return nil
		},
	}
	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	return cmd
}
