// Package suggestions supplies the curated list of packages to collect when
// the operator does not pass an explicit list.
package suggestions

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/suggestions.json
var suggestionData []byte

// List returns the embedded package names in their curated order. Duplicates
// are preserved as given.
func List() ([]string, error) {
	var names []string
	if err := json.Unmarshal(suggestionData, &names); err != nil {
		return nil, fmt.Errorf("embedded suggestions are invalid: %w", err)
	}
	return names, nil
}

// FromFile reads package names from a file, one per line. Blank lines and
// lines starting with # are skipped.
func FromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open package list: %w", err)
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
		return nil, fmt.Errorf("failed to read package list: %w", err)
	}
	return names, nil
}
