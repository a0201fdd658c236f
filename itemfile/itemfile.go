// Package itemfile reads item records from plain text files.
//
// Each file holds one item as key-prefixed lines:
//
//	Title: Weekly pick
//	Link: https://example.com/page
//	Subheader: Why it matters
//	Bullet: first point
//	Bullet2: second point
//
// Lines are trimmed. The value is the text after the first colon, trimmed.
// A "Bullet:" or "Bullet<N>:" line appends a bullet; other lines, including
// ones like "Bulletin: ..." or a bare "Bullets", are ignored. A later Title, Link or Subheader line replaces an
// earlier one.
package itemfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/linksheet/model"
)

// ErrMissingItem is returned when an item file does not exist. It matches
// fs.ErrNotExist as well.
var ErrMissingItem = fmt.Errorf("item file missing: %w", fs.ErrNotExist)

// Ext is the item file extension.
const Ext = ".txt"

const bom = "\ufeff"

// Parse reads one item from r.
func Parse(r io.Reader) (model.Item, error) {
	var item model.Item

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "Title:"):
			item.Title = value(line)
		case strings.HasPrefix(line, "Link:"):
			item.Link = value(line)
		case strings.HasPrefix(line, "Subheader:"):
			item.Subheader = value(line)
		case isBullet(line):
			item.Bullets = append(item.Bullets, value(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Item{}, fmt.Errorf("failed to read item: %w", err)
	}
	return item, nil
}

// isBullet reports whether line has a "Bullet:" or "Bullet<N>:" key.
func isBullet(line string) bool {
	key, _, found := strings.Cut(line, ":")
	if !found || !strings.HasPrefix(key, "Bullet") {
		return false
	}
	n := strings.TrimSpace(strings.TrimPrefix(key, "Bullet"))
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// value returns the NFC-normalised text after the first colon. A line with
// no colon has an empty value.
func value(line string) string {
	_, v, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(v))
}

// ParseFile reads the item stored at path.
func ParseFile(path string) (model.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Item{}, fmt.Errorf("%w: %s", ErrMissingItem, path)
		}
		return model.Item{}, fmt.Errorf("failed to open item: %w", err)
	}
	defer f.Close()

	item, err := Parse(f)
	if err != nil {
		return model.Item{}, fmt.Errorf("%s: %w", path, err)
	}
	return item, nil
}

// Path returns the file that holds the item named key.
func Path(dir, key string) string {
	return filepath.Join(dir, key+Ext)
}

// LoadAll loads the items named keys from dir in key order. Every file is
// checked for existence before any is parsed, so a missing item fails the
// whole load up front.
func LoadAll(dir string, keys []string) ([]model.Item, error) {
	paths := make([]string, len(keys))
	for i, key := range keys {
		paths[i] = Path(dir, key)
		info, err := os.Stat(paths[i])
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingItem, paths[i])
			}
			return nil, fmt.Errorf("failed to stat item: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("item %s is a directory", paths[i])
		}
	}

	items := make([]model.Item, len(keys))
	for i, path := range paths {
		item, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}
