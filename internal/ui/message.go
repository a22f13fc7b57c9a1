package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playgen/internal/tasks"
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
	MsgCycleComplete
)

type cycleComplete struct {
	result *tasks.GenerationResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// cycleCompleteMsg is the constructor for [MsgCycleComplete]
func cycleCompleteMsg(result *tasks.GenerationResult, err error) Msg {
	return Msg{kind: MsgCycleComplete, data: cycleComplete{result, err}}
}
