package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/mindbridge/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect test catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tests in the configured catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tQUESTIONS\tNAME")
		for _, t := range cat.Tests() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.Type, t.TotalQuestions(), t.Name)
		}
		return w.Flush()
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a catalog file without starting the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Catalog.Path
		if len(args) == 1 {
			path = args[0]
		}
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return err
		}
		if path == "" {
			path = "embedded default"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tests ok\n", path, cat.Len())
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
