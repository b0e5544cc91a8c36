package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ResolvePath(a.flags.ConfigPath)
			if err := config.WriteTemplate(path, force); err != nil {
				return setupError(err)
			}
			fmt.Fprintf(a.stdout, "wrote %s; fill in email, password and page_url\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config with the password masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return config.Show(a.stdout, cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
