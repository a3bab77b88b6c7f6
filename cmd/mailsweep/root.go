package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mailsweep/internal/catalog"
	"mailsweep/internal/cleanup"
	"mailsweep/internal/config"
	"mailsweep/internal/gmail"
	"mailsweep/internal/model"
	"mailsweep/internal/util"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	cat     *catalog.Catalog
	stdout  io.Writer
	stderr  io.Writer

	// searcher, when set, replaces the configured backend (tests).
	searcher gmail.Searcher
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{v: config.New(), stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mailsweep",
		Short: "Find bulk and automated Gmail and walk through cleaning it up",
		Long: `mailsweep composes Gmail searches for common kinds of bulk mail (promotions,
social notifications, system updates, no-reply senders and your own sender
rules), estimates how many messages each one matches and tells you exactly
what to run in Gmail to delete them. It never deletes anything itself.

Run without a subcommand for the interactive interface.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.config/mailsweep/config.yaml)")
	pf.String("backend", config.BackendGmail, "search backend: gmail or http")
	pf.String("endpoint", "", "base URL of the Gmail bridge for the http backend")
	pf.StringP("time-range", "t", "30", "only count mail older than this many days, or \"all\"")
	pf.StringP("loglevel", "l", "info", "log level: debug, info, warn, error")
	a.v.BindPFlag(config.KeyBackend, pf.Lookup("backend"))
	a.v.BindPFlag(config.KeyEndpoint, pf.Lookup("endpoint"))
	a.v.BindPFlag(config.KeyTimeRange, pf.Lookup("time-range"))
	a.v.BindPFlag(config.KeyLogLevel, pf.Lookup("loglevel"))

	root.AddCommand(newCategoriesCmd(a))
	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newProfileCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := util.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	util.Log.SetOutput(a.stderr)
	cat, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	a.cfg, a.cat = cfg, cat
	return nil
}

// connect builds the estimate client for the configured backend. The Gmail
// backend may run the OAuth consent flow through prompt, or through the
// terminal when prompt is nil.
func (a *app) connect(ctx context.Context, prompt *gmail.Prompt) (*gmail.EstimateClient, error) {
	if a.searcher != nil {
		return gmail.NewEstimateClient(a.searcher, a.cfg.EstimateTimeout), nil
	}
	switch a.cfg.Backend {
	case config.BackendHTTP:
		s := gmail.NewHTTPSearcher(a.cfg.Endpoint, &http.Client{})
		return gmail.NewEstimateClient(s, a.cfg.EstimateTimeout), nil
	default:
		if prompt == nil {
			p := gmail.StdioPrompt(ctx, a.stderr, os.Stdin)
			prompt = &p
		}
		svc, err := gmail.NewService(ctx, a.cfg.Dir, *prompt)
		if err != nil {
			return nil, fmt.Errorf("connect to gmail: %w", err)
		}
		return gmail.NewEstimateClient(gmail.NewAPISearcher(svc), a.cfg.EstimateTimeout), nil
	}
}

// controller returns a session preloaded with ids. A failed connection leaves
// the session without a backend: the profile shows the placeholder and an
// analysis yields the failed snapshot, while everything else keeps working.
func (a *app) controller(ctx context.Context, ids []string) (*cleanup.Controller, error) {
	if err := a.cat.Validate(ids); err != nil {
		return nil, err
	}
	var backend cleanup.Backend
	if est, err := a.connect(ctx, nil); err != nil {
		util.Log.WithError(err).Warn("gmail unavailable")
	} else {
		backend = est
	}
	sel := model.NewSelection(ids, a.cfg.TimeRange.Days())
	return cleanup.New(a.cat, backend, sel, cleanup.WithPace(a.cfg.PaceInterval)), nil
}
