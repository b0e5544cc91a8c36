package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/cases"
)

func (a *app) newValidateCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "validate [cases-file]",
		Short: "Check a cases file without opening a browser",
		Long: `Validate loads the cases file and reports every record with a missing
message or expected reply, or a regex that does not compile. Without an
argument the file comes from cases_file in the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				path = cfg.CasesFile
				if sheet == "" {
					sheet = cfg.CasesSheet
				}
			}

			cs, err := cases.Load(path, cases.LoadOptions{Sheet: sheet})
			if err != nil {
				return setupError(err)
			}
			fmt.Fprintf(a.stdout, "ok: %d cases in %s\n", len(cs), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read from an .xlsx file (default cases_sheet or the first sheet)")
	return cmd
}
