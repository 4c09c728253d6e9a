package archive

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/shared"
)

// maxTextSize is the upper bound for text classification; larger files are
// treated as binary regardless of content.
const maxTextSize = 100 * 1024

// skipNames are filenames that never carry importable content (case-insensitive).
var skipNames = map[string]bool{
	"makefile":    true,
	"index.html":  true,
	"thumbs.db":   true,
	"desktop.ini": true,
}

// skipDirs are directory names excluded from the walk (case-insensitive).
// Dotted directories are excluded by the dotfile rule.
var skipDirs = map[string]bool{
	"node_modules":     true,
	"__pycache__":      true,
	"bower_components": true,
	"venv":             true,
}

// audioExts are handled by a separate pathway and never imported here.
var audioExts = map[string]bool{
	".mp3": true, ".ogg": true, ".wav": true, ".m4a": true,
	".flac": true, ".aac": true, ".aiff": true,
}

// forcedBinaryExts are always classified binary without content inspection.
var forcedBinaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".pdf": true, ".zip": true, ".doc": true, ".docx": true,
	".sib": true, ".mus": true, ".mid": true, ".midi": true,
}

// File is one collected artifact, classified and stamped.
type File struct {
	Path      string // Absolute path on disk
	Name      string // Base name including extension
	RelPath   string // Path relative to the collection root
	Label     string // Human-normalized version label (gen/ stripped, extension removed)
	Data      []byte
	Binary    bool
	Timestamp time.Time // Authorial timestamp from the TimestampSource
}

// Labels returns the candidate version labels for change detection: the
// normalized label and the raw source name, deduplicated.
func (f File) Labels() []string {
	raw := shared.RawLabel(f.Name)
	if raw == f.Label {
		return []string{f.Label}
	}
	return []string{f.Label, raw}
}

// Collector enumerates directories of source artifacts.
type Collector struct {
	ts     TimestampSource
	logger *log.Logger
}

// NewCollector creates a Collector using the given timestamp strategy.
func NewCollector(ts TimestampSource, logger *log.Logger) *Collector {
	if ts == nil {
		ts = ModTimeSource{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Collector{ts: ts, logger: logger}
}

// Collect recursively enumerates root and returns the importable files in
// directory-listing order. Read failures on individual entries are logged and
// skipped; only a failure to read the root itself is an error.
func (c *Collector) Collect(root string) ([]File, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	var files []File
	c.collect(root, "", entries, &files)
	return files, nil
}

func (c *Collector) collect(root, relDir string, entries []os.DirEntry, out *[]File) {
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		relPath := name
		if relDir != "" {
			relPath = filepath.Join(relDir, name)
		}
		absPath := filepath.Join(root, relPath)

		if entry.IsDir() {
			if skipDirs[strings.ToLower(name)] {
				continue
			}
			children, err := os.ReadDir(absPath)
			if err != nil {
				c.logger.Warn("skipping unreadable directory", "path", absPath, "error", err)
				continue
			}
			c.collect(root, relPath, children, out)
			continue
		}

		if skipNames[strings.ToLower(name)] {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if audioExts[ext] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			c.logger.Warn("skipping unstattable file", "path", absPath, "error", err)
			continue
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			c.logger.Warn("skipping unreadable file", "path", absPath, "error", err)
			continue
		}

		ts, err := c.ts.Timestamp(absPath, info)
		if err != nil {
			c.logger.Warn("skipping file without timestamp", "path", absPath, "error", err)
			continue
		}

		*out = append(*out, File{
			Path:      absPath,
			Name:      name,
			RelPath:   relPath,
			Label:     deriveLabel(relPath),
			Data:      data,
			Binary:    classifyBinary(ext, data),
			Timestamp: ts,
		})
	}
}

// CollectFile reads one explicitly named file, bypassing the skip rules that
// apply during directory walks.
func (c *Collector) CollectFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ts, err := c.ts.Timestamp(path, info)
	if err != nil {
		return File{}, fmt.Errorf("failed to derive timestamp for %s: %w", path, err)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	return File{
		Path:      path,
		Name:      name,
		RelPath:   name,
		Label:     deriveLabel(name),
		Data:      data,
		Binary:    classifyBinary(ext, data),
		Timestamp: ts,
	}, nil
}

// FindByPrefix returns the path of the first file in dir (listing order)
// whose name starts with prefix.
func FindByPrefix(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no file in %s matches prefix %q", dir, prefix)
}

// ListSubdirs returns the immediate subdirectories of root in listing order,
// applying the same dotfile and skip-list rules as Collect.
func (c *Collector) ListSubdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || skipDirs[strings.ToLower(name)] {
			continue
		}
		dirs = append(dirs, filepath.Join(root, name))
	}
	return dirs, nil
}

// deriveLabel produces the human-normalized label for a file: the relative
// path with any leading gen/ component stripped, extension removed, and
// underscores normalized. Deeper nesting falls back to the base name.
func deriveLabel(relPath string) string {
	rel := filepath.ToSlash(relPath)
	rel = strings.TrimPrefix(rel, "gen/")
	if strings.Contains(rel, "/") {
		rel = rel[strings.LastIndex(rel, "/")+1:]
	}
	return shared.LabelFromFilename(rel)
}

// classifyBinary implements the classification rule: forced extension, NUL
// byte, invalid UTF-8, or oversize all mean binary.
func classifyBinary(ext string, data []byte) bool {
	if forcedBinaryExts[ext] {
		return true
	}
	if len(data) > maxTextSize {
		return true
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}
