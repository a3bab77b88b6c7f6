package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mailsweep/internal/analysis"
	"mailsweep/internal/model"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		categories []string
		asJSON     bool
		steps      bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate how many messages each selected category matches",
		Example: `  mailsweep analyze -c promotions -c social -t 90
  mailsweep analyze -c bizreach --steps`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(categories) == 0 {
				return fmt.Errorf("--category is required (see `mailsweep categories`)")
			}
			ctx := cmd.Context()
			ctl, err := a.controller(ctx, categories)
			if err != nil {
				return err
			}
			defer ctl.Close()

			snap, err := ctl.Analyze(ctx, func(_ uint64, p analysis.Progress) {
				if p.Result.Status == model.StatusFailed {
					fmt.Fprintf(a.stderr, "[%d/%d] %s: failed (%s)\n", p.Done, p.Total, p.Result.CategoryName, p.Result.Reason)
					return
				}
				fmt.Fprintf(a.stderr, "[%d/%d] %s: %d\n", p.Done, p.Total, p.Result.CategoryName, p.Result.Estimated)
			})
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(a.stdout, snap); err != nil {
					return err
				}
			} else {
				printSnapshot(a.stdout, snap)
			}
			if snap.Failed() {
				return errors.New("analysis failed")
			}
			if !steps {
				return nil
			}

			if err := ctl.StartActionLog(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, headerStyle.Render("Manual cleanup steps"))
			for step := 1; ; step++ {
				rec, ok := ctl.NextAction(ctx)
				if !ok {
					break
				}
				printAction(a.stdout, step, rec)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Category id to analyze (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the snapshot as JSON")
	cmd.Flags().BoolVar(&steps, "steps", false, "Walk through the manual cleanup steps afterwards")
	return cmd
}
