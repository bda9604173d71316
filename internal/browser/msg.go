// Package browser implements the interactive terminal browser. It is the
// display side of a navigation.Controller: grid cells stand in for the
// rendered assets and the keyboard or mouse drives selection.
package browser

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/meshbrowse/internal/assettree"
	"github.com/smileynet/meshbrowse/internal/fetch"
	"github.com/smileynet/meshbrowse/internal/loading"
)

// --- Consumer-side interfaces ---

// Results reports finished fetches and drops the ones no longer shown.
type Results interface {
	Result(h loading.Handle) (fetch.Result, bool)
	Forget(handles ...loading.Handle)
}

// --- tea.Msg types ---

// TreeChangedMsg carries a freshly parsed tree after the source changed,
// or the error that prevented parsing it.
type TreeChangedMsg struct {
	Tree *assettree.Tree
	Err  error
}

// startMsg triggers the first refresh from inside the update loop.
type startMsg struct{}

// tickMsg drives the loading coordinator.
type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForReload returns a tea.Cmd that blocks until the next tree change.
// A nil channel yields no command.
func waitForReload(ch <-chan TreeChangedMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
