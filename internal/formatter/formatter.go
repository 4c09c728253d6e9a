// package formatter renders import run results as plain text reports and JSON manifests
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/tasks"
)

// ReportToText renders a human-readable per-stage report of an import run.
func ReportToText(result *tasks.ImportRunResult) []byte {
	var buf bytes.Buffer

	stages := []struct {
		name    string
		results []tasks.ImportResult
	}{
		{"Speeches", result.Speeches},
		{"Activities", result.Activities},
		{"Songs", result.Songs},
		{"Programs", result.Programs},
		{"Resyncs", result.Resyncs},
	}

	for _, stage := range stages {
		if len(stage.results) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("%s (%d)\n", stage.name, len(stage.results)))
		for _, r := range stage.results {
			buf.WriteString(fmt.Sprintf("  %-20s %s", r.Status, r.Title))
			if r.Err != nil {
				buf.WriteString(fmt.Sprintf(": %v", r.Err))
			}
			if len(r.Missing) > 0 {
				buf.WriteString(fmt.Sprintf(" (missing: %s)", strings.Join(r.Missing, ", ")))
			}
			if len(r.Placeholders) > 0 {
				buf.WriteString(fmt.Sprintf(" (placeholders: %s)", strings.Join(r.Placeholders, ", ")))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	buf.WriteString(SummaryLine(result))
	buf.WriteString("\n")
	return buf.Bytes()
}

// SummaryLine renders a one-line status tally, e.g. "12 created, 3 exists, 1 failed".
func SummaryLine(result *tasks.ImportRunResult) string {
	tally := result.Tally()

	keys := make([]string, 0, len(tally))
	for status := range tally {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", tally[tasks.Status(key)], key))
	}
	if len(parts) == 0 {
		return "nothing to import"
	}
	return strings.Join(parts, ", ")
}

// manifestItem mirrors tasks.ImportResult with the error flattened to a string.
type manifestItem struct {
	tasks.ImportResult
	Error string `json:"error,omitempty"`
}

// ImportManifest is the JSON document describing one completed import run.
type ImportManifest struct {
	GeneratedAt time.Time            `json:"generated_at"`
	DryRun      bool                 `json:"dry_run"`
	Tally       map[tasks.Status]int `json:"tally"`
	Items       []manifestItem       `json:"items"`
}

// NewImportManifest builds the manifest document for a run.
func NewImportManifest(result *tasks.ImportRunResult, dryRun bool) *ImportManifest {
	all := result.All()
	items := make([]manifestItem, 0, len(all))
	for _, r := range all {
		item := manifestItem{ImportResult: r}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		items = append(items, item)
	}

	return &ImportManifest{
		GeneratedAt: time.Now().UTC(),
		DryRun:      dryRun,
		Tally:       result.Tally(),
		Items:       items,
	}
}

// WriteImportManifest writes the JSON manifest for a run to path.
func WriteImportManifest(result *tasks.ImportRunResult, dryRun bool, path string) error {
	data, err := shared.MarshalJSON(NewImportManifest(result, dryRun), true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
