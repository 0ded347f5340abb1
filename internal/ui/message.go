package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgAssembleComplete
)

type assembleResult struct {
	report *models.PlaylistReport
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// assembleCompleteMsg is the constructor for [MsgAssembleComplete]
func assembleCompleteMsg(report *models.PlaylistReport, err error) Msg {
	return Msg{kind: MsgAssembleComplete, data: assembleResult{report: report, err: err}}
}
