package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dsjohal14/synfinder/internal/scope/cache"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

const stampLayout = "2006-01-02 15:04"

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and update the term caches",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(ctx))
	cacheCmd.AddCommand(newCacheUpdateCommand(ctx))

	return cacheCmd
}

func newCacheInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cached corpora",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ctx.close() }()

			sources, err := a.Cache.Addresses(cmd.Context())
			if err != nil {
				return err
			}

			var infos []sourceInfo
			for _, src := range sources {
				info, ok, err := a.Cache.Info(cmd.Context(), src, 0)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				infos = append(infos, sourceInfo{address: src.Address, params: len(src.Params), info: info})
			}
			printCacheInfo(cmd.OutOrStdout(), infos)
			return nil
		},
	}
}

type sourceInfo struct {
	address string
	params  int
	info    *cache.Info
}

func printCacheInfo(out io.Writer, infos []sourceInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(out, "Cached databases: none")
		return
	}
	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []string{
			s.address,
			strconv.Itoa(s.params),
			strconv.Itoa(s.info.Chunks),
			strconv.Itoa(s.info.Terms),
			s.info.SavedAt.Local().Format(stampLayout),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Address", "Params", "Chunks", "Terms", "Saved"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func newCacheUpdateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var address string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the term cache of one or every configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			targets := cfg.Databases
			if name != "" || address != "" {
				db, err := ctx.database(name, address)
				if err != nil {
					return err
				}
				targets = []streamlite.Database{db}
			}
			if len(targets) == 0 {
				return fmt.Errorf("no databases configured")
			}

			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ctx.close() }()

			if err := a.Service.RefreshAll(cmd.Context(), targets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d database(s)\n", len(targets))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "database", "d", "", "Configured database name")
	cmd.Flags().StringVar(&address, "address", "", "BrAPI base address of an unconfigured database")

	return cmd
}
