package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDatabasesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List the configured databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Databases) == 0 {
				fmt.Fprintln(out, "No databases configured")
				return nil
			}

			rows := make([][]string, 0, len(cfg.Databases))
			for _, db := range cfg.Databases {
				rows = append(rows, []string{
					db.Name,
					db.Address,
					db.Major(),
					strconv.Itoa(len(db.Params)),
					strconv.FormatBool(db.AuthToken != ""),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Address", "BrAPI", "Params", "Auth"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
