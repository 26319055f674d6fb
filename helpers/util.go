package helpers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadItems reads one item name per line. Blank lines and lines starting
// with "#" are ignored.
func ReadItems(r io.Reader) ([]string, error) {
	var items []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// LoadItems reads item names from the file at path
func LoadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file: %w", err)
	}
	defer f.Close()
	return ReadItems(f)
}
