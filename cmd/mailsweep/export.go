package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mailsweep/internal/export"
	"mailsweep/internal/model"
	"mailsweep/internal/query"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		categories []string
		outDir     string
		toStdout   bool
		noProfile  bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the cleanup queries and manual instructions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(categories) == 0 {
				return fmt.Errorf("--category is required (see `mailsweep categories`)")
			}
			if err := a.cat.Validate(categories); err != nil {
				return err
			}
			now := time.Now()
			sel := model.NewSelection(categories, a.cfg.TimeRange.Days())
			profile := model.ProfileStatus{}
			if !noProfile {
				ctl, err := a.controller(cmd.Context(), categories)
				if err != nil {
					return err
				}
				profile = ctl.RefreshProfile(cmd.Context())
			}
			doc := export.Build(query.Compose(a.cat, sel), a.cfg.TimeRange, profile, now)
			if toStdout {
				return doc.Encode(a.stdout)
			}
			dir := outDir
			if dir == "" {
				dir = a.cfg.ExportDir
			}
			path, err := export.WriteFile(dir, doc, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %d queries to %s\n", len(doc.Queries), path)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Category id to export (repeatable)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory for the export file (default from config, \".\")")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the document instead of writing a file")
	cmd.Flags().BoolVar(&noProfile, "no-profile", false, "Skip the mailbox total lookup")
	return cmd
}
