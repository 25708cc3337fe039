// Package filelist maintains the deduplicated, sorted collection of
// browsable images and the cursor into it. Sources are flattened one level
// deep: a file contributes itself, a directory its direct file children,
// an archive its image entries. Filesystem access goes through afero so
// the collection logic is testable against an in-memory tree.
package filelist

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ErrEmptyList is returned by Move when there are no items to navigate.
var ErrEmptyList = errors.New("filelist: no files")

// ImagePath identifies one browsable image, either a plain file or an entry
// inside an archive.
type ImagePath struct {
	Path        string // local file path, or archive:entry for entries
	ArchivePath string // empty for regular files
	EntryPath   string // empty for regular files
}

// DefaultExtensions is the default allow-list of image file extensions.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Navigator owns the file list and the current position. The zero position
// is "no current file" (index -1), entered when the list is empty.
type Navigator struct {
	fs       afero.Fs
	exts     map[string]bool
	strategy SortStrategy

	items   []ImagePath
	current int
}

// NewNavigator returns an empty navigator. A nil strategy falls back to
// lexicographic order; empty exts fall back to DefaultExtensions.
func NewNavigator(fsys afero.Fs, exts []string, strategy SortStrategy) *Navigator {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if strategy == nil {
		strategy = &SimpleSortStrategy{}
	}
	allow := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allow[strings.ToLower(e)] = true
	}
	return &Navigator{
		fs:       fsys,
		exts:     allow,
		strategy: strategy,
		current:  -1,
	}
}

// Supported reports whether a path matches the extension allow-list
// (case-insensitive).
func (n *Navigator) Supported(path string) bool {
	return n.exts[strings.ToLower(filepath.Ext(path))]
}

// Items returns the current list in order.
func (n *Navigator) Items() []ImagePath { return n.items }

// Len returns the number of items.
func (n *Navigator) Len() int { return len(n.items) }

// Index returns the current position, or -1 when there is no current file.
func (n *Navigator) Index() int { return n.current }

// Current returns the current item, or ok=false when the list is empty.
func (n *Navigator) Current() (ImagePath, bool) {
	if n.current < 0 || n.current >= len(n.items) {
		return ImagePath{}, false
	}
	return n.items[n.current], true
}

// Rebuild flattens the sources into a fresh list: dedup by normalized
// path, filter by the extension allow-list, order by the configured sort
// strategy. The previous current file is re-found by path value; if it
// vanished the cursor falls back to the first item, or to "no current"
// when the list came out empty. Unreadable sources are skipped.
func (n *Navigator) Rebuild(sources []string) {
	prev, hadPrev := n.Current()

	collected := n.collect(sources)

	seen := make(map[string]bool, len(collected))
	items := collected[:0]
	for _, it := range collected {
		key := normalizePath(it.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, it)
	}

	n.items = n.strategy.Sort(items)

	n.current = -1
	if len(n.items) == 0 {
		return
	}
	n.current = 0
	if !hadPrev {
		return
	}
	for i, it := range n.items {
		if normalizePath(it.Path) == normalizePath(prev.Path) {
			n.current = i
			return
		}
	}
}

// Move changes the current position. Relative moves offset the cursor,
// absolute moves set it; both wrap around through a mathematical modulo,
// so moving past the last file lands on the first and negative positions
// count from the end.
func (n *Navigator) Move(pos int, relative bool) error {
	if len(n.items) == 0 {
		return ErrEmptyList
	}
	if relative {
		pos += n.current
	}
	n.current = mod(pos, len(n.items))
	return nil
}

// Remove drops the entry with the given path from the list. When the
// removed entry was the current one the cursor ends up on the following
// item; removing the last remaining entry empties the list.
func (n *Navigator) Remove(path string) {
	key := normalizePath(path)
	for i, it := range n.items {
		if normalizePath(it.Path) != key {
			continue
		}
		n.items = append(n.items[:i], n.items[i+1:]...)
		switch {
		case len(n.items) == 0:
			n.current = -1
		case i < n.current:
			n.current--
		case n.current >= len(n.items):
			n.current = len(n.items) - 1
		}
		return
	}
}

func normalizePath(p string) string {
	return filepath.Clean(p)
}

// mod is the mathematical modulo: the result is always in [0, m).
func mod(x, m int) int {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

// collect flattens the sources. Directories are expanded exactly one level
// (direct file children, sorted by name); recursing would silently change
// the browsing semantics, so it is deliberately absent. Archives expand to
// their image entries.
func (n *Navigator) collect(sources []string) []ImagePath {
	var list []ImagePath
	for _, src := range sources {
		info, err := n.fs.Stat(src)
		if err != nil {
			continue
		}
		if info.IsDir() {
			entries, err := afero.ReadDir(n.fs, src)
			if err != nil {
				continue
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)
			for _, name := range names {
				list = append(list, n.collectFile(filepath.Join(src, name))...)
			}
		} else {
			list = append(list, n.collectFile(src)...)
		}
	}
	return list
}

func (n *Navigator) collectFile(path string) []ImagePath {
	if n.Supported(path) {
		return []ImagePath{{Path: path}}
	}
	if IsArchiveExt(path) {
		entries, err := expandArchive(path, n.Supported)
		if err != nil {
			return nil
		}
		return entries
	}
	return nil
}
