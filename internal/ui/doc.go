// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders a live log of the import pipeline: each per-item result is
// appended as it is computed, colored by status, with a scrolling viewport
// and a summary view once the run completes. Progress updates flow through a
// channel from the ImportEngine, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
