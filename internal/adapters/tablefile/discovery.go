package tablefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches every file of a category. {category} is replaced
// with the category name before globbing.
const DefaultPattern = "{category}_*"

// Discovery locates table files in a data directory.
type Discovery struct {
	dir     string
	pattern string
}

// NewDiscovery creates a discovery over dir. An empty pattern uses
// DefaultPattern.
func NewDiscovery(dir, pattern string) *Discovery {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Discovery{dir: dir, pattern: pattern}
}

// Dir returns the data directory.
func (d *Discovery) Dir() string {
	return d.dir
}

// Latest returns the path of the lexicographically greatest supported file
// for category. Date-stamped names therefore resolve to the newest table.
func (d *Discovery) Latest(category string) (string, error) {
	glob := strings.ReplaceAll(d.pattern, "{category}", category)
	matches, err := filepath.Glob(filepath.Join(d.dir, glob))
	if err != nil {
		return "", fmt.Errorf("invalid pattern %s: %w", glob, err)
	}
	var names []string
	for _, m := range matches {
		if _, err := Format(m); err != nil {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		names = append(names, m)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrNoTableFile, category, d.dir)
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// Categories lists the categories that have at least one supported file,
// taken as the name prefix before the first underscore.
func (d *Discovery) Categories() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}
	seen := make(map[string]bool)
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := Format(name); err != nil {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok || prefix == "" || seen[prefix] {
			continue
		}
		seen[prefix] = true
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out, nil
}
