package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func collectNames(files []File) map[string]File {
	byName := make(map[string]File, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}
	return byName
}

func TestCollect(t *testing.T) {
	fixed := FixedSource{T: time.Date(2024, 12, 21, 18, 0, 0, 0, time.UTC)}

	t.Run("filters noise", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "song.txt", []byte("lyrics"))
		writeFile(t, dir, ".hidden", []byte("x"))
		writeFile(t, dir, "Makefile", []byte("all:"))
		writeFile(t, dir, "index.html", []byte("<html>"))
		writeFile(t, dir, "track.mp3", []byte{0xff, 0xfb})
		writeFile(t, dir, filepath.Join("node_modules", "dep.txt"), []byte("x"))
		writeFile(t, dir, filepath.Join(".git", "config"), []byte("x"))

		collector := NewCollector(fixed, nil)
		files, err := collector.Collect(dir)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}

		if len(files) != 1 {
			t.Fatalf("expected only song.txt, got %d files", len(files))
		}
		if files[0].Name != "song.txt" {
			t.Errorf("expected song.txt, got %s", files[0].Name)
		}
		if !files[0].Timestamp.Equal(fixed.T) {
			t.Errorf("expected fixed timestamp, got %v", files[0].Timestamp)
		}
	})

	t.Run("recurses and strips gen from labels", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "brighter_than_today.txt", []byte("lyrics"))
		writeFile(t, dir, filepath.Join("gen", "brighter_than_today.ly"), []byte("\\score{}"))

		collector := NewCollector(fixed, nil)
		files, err := collector.Collect(dir)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(files))
		}
		for _, f := range files {
			if f.Label != "brighter than today" {
				t.Errorf("file %s: expected label %q, got %q", f.Name, "brighter than today", f.Label)
			}
		}
	})

	t.Run("classification", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "text.txt", []byte("plain text"))
		writeFile(t, dir, "nul.dat", []byte{'a', 0, 'b'})
		writeFile(t, dir, "image.png", []byte("not really an image"))
		writeFile(t, dir, "invalid.txt", []byte{0xff, 0xfe, 0x41})
		writeFile(t, dir, "huge.txt", bytes.Repeat([]byte("a"), maxTextSize+1))

		collector := NewCollector(fixed, nil)
		files, err := collector.Collect(dir)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		byName := collectNames(files)

		cases := []struct {
			name   string
			binary bool
		}{
			{"text.txt", false},
			{"nul.dat", true},
			{"image.png", true},
			{"invalid.txt", true},
			{"huge.txt", true},
		}
		for _, tc := range cases {
			f, ok := byName[tc.name]
			if !ok {
				t.Errorf("%s missing from collection", tc.name)
				continue
			}
			if f.Binary != tc.binary {
				t.Errorf("%s: expected binary=%v, got %v", tc.name, tc.binary, f.Binary)
			}
		}
	})

	t.Run("missing root", func(t *testing.T) {
		collector := NewCollector(fixed, nil)
		if _, err := collector.Collect(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Error("expected error for missing root")
		}
	})
}

func TestFileLabels(t *testing.T) {
	f := File{Name: "five_thousand_years.txt", Label: "five thousand years"}
	labels := f.Labels()
	if len(labels) != 2 {
		t.Fatalf("expected 2 candidate labels, got %v", labels)
	}
	if labels[0] != "five thousand years" || labels[1] != "five_thousand_years" {
		t.Errorf("unexpected labels: %v", labels)
	}

	plain := File{Name: "chorus.txt", Label: "chorus"}
	if got := plain.Labels(); len(got) != 1 {
		t.Errorf("expected 1 label when forms match, got %v", got)
	}
}

func TestListSubdirs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"Brighter Than Today", "Uplift", ".hidden", "node_modules"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("failed to create subdir: %v", err)
		}
	}
	writeFile(t, dir, "stray.txt", []byte("x"))

	collector := NewCollector(nil, nil)
	dirs, err := collector.ListSubdirs(dir)
	if err != nil {
		t.Fatalf("ListSubdirs failed: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %v", dirs)
	}
}
