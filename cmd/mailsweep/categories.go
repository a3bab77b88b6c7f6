package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the cleanup categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := a.cat.All()
			if asJSON {
				type row struct {
					ID          string `json:"id"`
					Name        string `json:"name"`
					Description string `json:"description"`
					Query       string `json:"query"`
					Risk        string `json:"risk"`
				}
				rows := make([]row, 0, len(cats))
				for _, c := range cats {
					rows = append(rows, row{c.ID, c.Name, c.Description, c.BaseQuery, string(c.Risk)})
				}
				return writeJSON(a.stdout, rows)
			}
			for _, c := range cats {
				fmt.Fprintf(a.stdout, "%s  %s (%s)\n", headerStyle.Render(c.ID), c.Name, riskBadge(c.Risk))
				if c.Description != "" {
					fmt.Fprintln(a.stdout, indent(c.Description, "    "))
				}
				fmt.Fprintln(a.stdout, indent(c.BaseQuery, "    "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
