package tui

import (
	"mailsweep/internal/analysis"
	"mailsweep/internal/cleanup"
	"mailsweep/internal/model"
)

// Async message types for Bubble Tea commands.

type connectedMsg struct {
	backend cleanup.Backend
	err     error
}

type authURLMsg string

type profileMsg model.ProfileStatus

// analysisProgressMsg only arrives for the current run; the controller drops
// progress from superseded runs.
type analysisProgressMsg struct {
	p analysis.Progress
}

type analysisDoneMsg struct {
	snap model.Snapshot
	err  error
}

type stepsStartedMsg struct {
	err error
}

type actionMsg struct {
	rec model.ManualActionRecord
	ok  bool
}

type exportedMsg struct {
	path string
	err  error
}

type statusMsg string
