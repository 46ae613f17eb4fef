package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var cycleDir = regexp.MustCompile(`^\d{4}-\d{4}$`)

// Entry is one artifact found on disk.
type Entry struct {
	Year string
	Name string
	Path string
	Size int64
}

// Entries lists artifacts on disk for year, or for every cycle when year
// is empty, ordered by cycle then name.
func (c *Cache) Entries(year string) ([]Entry, error) {
	years, err := c.cycles(year)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, y := range years {
		dir := filepath.Join(c.dir, y)
		items, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, it := range items {
			if it.IsDir() || !strings.HasSuffix(it.Name(), ArtifactExt) || strings.HasPrefix(it.Name(), ".") {
				continue
			}
			info, err := it.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", it.Name(), err)
			}
			out = append(out, Entry{
				Year: y,
				Name: it.Name(),
				Path: filepath.Join(dir, it.Name()),
				Size: info.Size(),
			})
		}
	}
	return out, nil
}

// Clear removes cached artifacts and raw payloads for year, or for every
// cycle when year is empty. Files outside cycle directories (such as a
// ledger database) are left alone. Returns the number of files removed.
func (c *Cache) Clear(year string) (int, error) {
	years, err := c.cycles(year)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, y := range years {
		dir := filepath.Join(c.dir, y)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				removed++
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", dir, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	return removed, nil
}

// cycles returns the cycle directories under the cache root, restricted to
// year when it is set. A missing root yields no cycles.
func (c *Cache) cycles(year string) ([]string, error) {
	if year != "" {
		if !cycleDir.MatchString(year) {
			return nil, fmt.Errorf("invalid cycle %q", year)
		}
		info, err := os.Stat(filepath.Join(c.dir, year))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, nil
		}
		return []string{year}, nil
	}

	items, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.dir, err)
	}
	var years []string
	for _, it := range items {
		if it.IsDir() && cycleDir.MatchString(it.Name()) {
			years = append(years, it.Name())
		}
	}
	sort.Strings(years)
	return years, nil
}
