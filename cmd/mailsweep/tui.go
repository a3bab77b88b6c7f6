package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"mailsweep/internal/cleanup"
	"mailsweep/internal/gmail"
	"mailsweep/internal/model"
	"mailsweep/internal/tui"
	"mailsweep/internal/util"
)

// runTUI starts the interactive interface. The alt screen owns the terminal,
// so logging goes to a file in the config directory.
func (a *app) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logFile, err := util.LogToFile(a.cfg.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()

	appModel := tui.NewAppModel(ctx, tui.Options{
		Catalog:   a.cat,
		Selection: model.NewSelection(nil, a.cfg.TimeRange.Days()),
		Pace:      a.cfg.PaceInterval,
		ExportDir: a.cfg.ExportDir,
		Connect: func(ctx context.Context, prompt gmail.Prompt) (cleanup.Backend, error) {
			est, err := a.connect(ctx, &prompt)
			if err != nil {
				return nil, err
			}
			return est, nil
		},
	})
	defer appModel.Close()

	p := tea.NewProgram(&appModel, tea.WithAltScreen(), tea.WithContext(ctx))
	appModel.SetProgram(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
