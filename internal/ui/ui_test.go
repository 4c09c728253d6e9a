package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songbook/internal/tasks"
)

func testModel() *Model {
	return NewModel(context.Background(), nil, nil, tasks.ImportOpts{})
}

func TestUpdate(t *testing.T) {
	t.Run("progress updates append log lines", func(t *testing.T) {
		m := testModel()

		updated, _ := m.Update(progressUpdateMsg(tasks.ProgressUpdate{
			Message: "Importing 3 speeches...",
		}))
		m = updated.(*Model)

		updated, _ = m.Update(progressUpdateMsg(tasks.ProgressUpdate{
			Data: tasks.ImportResult{Kind: tasks.KindSpeech, Title: "opening talk", Status: tasks.StatusCreated},
		}))
		m = updated.(*Model)

		if len(m.lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(m.lines))
		}
		if !strings.Contains(m.lines[1], "opening talk") {
			t.Errorf("result line missing title: %q", m.lines[1])
		}
	})

	t.Run("completion switches to the result view", func(t *testing.T) {
		m := testModel()

		updated, _ := m.Update(importCompleteMsg{result: &tasks.ImportRunResult{}})
		m = updated.(*Model)

		if m.view != ResultView {
			t.Errorf("expected ResultView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Import complete") {
			t.Errorf("result view missing completion banner:\n%s", m.View())
		}
	})

	t.Run("failure renders the error", func(t *testing.T) {
		m := testModel()

		updated, _ := m.Update(importCompleteMsg{err: errors.New("broken tree")})
		m = updated.(*Model)

		if !strings.Contains(m.View(), "broken tree") {
			t.Errorf("error not rendered:\n%s", m.View())
		}
	})

	t.Run("quit key quits", func(t *testing.T) {
		m := testModel()

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.Quit")
		}
	})

	t.Run("dry run is labelled", func(t *testing.T) {
		m := NewModel(context.Background(), nil, nil, tasks.ImportOpts{DryRun: true})
		if !strings.Contains(m.View(), "dry run") {
			t.Errorf("running view missing dry run label:\n%s", m.View())
		}
	})
}
