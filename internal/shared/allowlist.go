package shared

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadAllowList reads a one-name-per-line allow-list file. Blank lines are
// skipped and #-prefixed lines are section headers within the list, not names.
func ReadAllowList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allow-list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}

	return names, nil
}
