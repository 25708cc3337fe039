package filelist

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFS(t *testing.T, paths ...string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, p := range paths {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fsys, p, []byte("x"), 0o644))
	}
	return fsys
}

func paths(items []ImagePath) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Path
	}
	return out
}

func TestRebuildFlattensOneLevelOnly(t *testing.T) {
	fsys := memFS(t,
		"pics/a.png",
		"pics/b.jpg",
		"pics/notes.txt",
		"pics/nested/deep.png", // one level down, must NOT be picked up
		"extra.gif",
	)

	n := NewNavigator(fsys, nil, nil)
	n.Rebuild([]string{"pics", "extra.gif"})

	assert.Equal(t, []string{
		"extra.gif",
		filepath.Join("pics", "a.png"),
		filepath.Join("pics", "b.jpg"),
	}, paths(n.Items()))
}

func TestRebuildFiltersAndDeduplicates(t *testing.T) {
	fsys := memFS(t,
		"d/one.PNG", // uppercase extension still matches
		"d/two.jpeg",
		"d/skip.bak",
	)

	n := NewNavigator(fsys, nil, nil)
	// The same file arrives via the directory and directly; also with a
	// redundant path that normalizes to the same entry.
	n.Rebuild([]string{"d", "d/one.PNG", "d/./two.jpeg"})

	require.Len(t, n.Items(), 2)
	assert.Equal(t, filepath.Join("d", "one.PNG"), n.Items()[0].Path)
}

func TestRebuildCustomExtensions(t *testing.T) {
	fsys := memFS(t, "d/a.png", "d/b.tiff")

	n := NewNavigator(fsys, []string{"tiff"}, nil)
	n.Rebuild([]string{"d"})

	require.Len(t, n.Items(), 1)
	assert.Equal(t, filepath.Join("d", "b.tiff"), n.Items()[0].Path)
}

func TestRebuildPreservesCurrentByValue(t *testing.T) {
	fsys := memFS(t, "d/a.png", "d/b.png", "d/c.png")
	n := NewNavigator(fsys, nil, nil)
	n.Rebuild([]string{"d"})
	require.NoError(t, n.Move(2, false)) // c.png

	// A new file sorts ahead of the current one; the cursor must follow
	// c.png by value, not stay at position 2.
	require.NoError(t, afero.WriteFile(fsys, "d/0.png", []byte("x"), 0o644))
	n.Rebuild([]string{"d"})

	cur, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, filepath.Join("d", "c.png"), cur.Path)
	assert.Equal(t, 3, n.Index())
}

func TestRebuildFallbackWhenCurrentVanished(t *testing.T) {
	fsys := memFS(t, "d/a.png", "d/b.png")
	n := NewNavigator(fsys, nil, nil)
	n.Rebuild([]string{"d"})
	require.NoError(t, n.Move(1, false))

	require.NoError(t, fsys.Remove("d/b.png"))
	n.Rebuild([]string{"d"})

	assert.Equal(t, 0, n.Index())

	require.NoError(t, fsys.Remove("d/a.png"))
	n.Rebuild([]string{"d"})

	assert.Equal(t, -1, n.Index())
	_, ok := n.Current()
	assert.False(t, ok)
}

func TestRebuildSkipsMissingSources(t *testing.T) {
	fsys := memFS(t, "d/a.png")
	n := NewNavigator(fsys, nil, nil)
	n.Rebuild([]string{"nope", "d"})
	assert.Equal(t, 1, n.Len())
}

func TestMoveWraparound(t *testing.T) {
	fsys := memFS(t, "d/a.png", "d/b.png", "d/c.png")
	n := NewNavigator(fsys, nil, nil)
	n.Rebuild([]string{"d"})

	tests := []struct {
		name     string
		start    int
		pos      int
		relative bool
		want     int
	}{
		{"Back from first wraps to last", 0, -1, true, 2},
		{"Forward past end wraps", 0, 4, true, 1},
		{"Forward one", 1, 1, true, 2},
		{"Absolute", 0, 1, false, 1},
		{"Absolute modulo", 0, 5, false, 2},
		{"Absolute negative counts from end", 0, -1, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, n.Move(tt.start, false))
			require.NoError(t, n.Move(tt.pos, tt.relative))
			assert.Equal(t, tt.want, n.Index())
		})
	}
}

func TestMoveEmptyList(t *testing.T) {
	n := NewNavigator(afero.NewMemMapFs(), nil, nil)
	n.Rebuild(nil)
	assert.ErrorIs(t, n.Move(1, true), ErrEmptyList)
}

func TestRemove(t *testing.T) {
	build := func(t *testing.T) *Navigator {
		fsys := memFS(t, "d/a.png", "d/b.png", "d/c.png")
		n := NewNavigator(fsys, nil, nil)
		n.Rebuild([]string{"d"})
		return n
	}

	t.Run("Current entry: cursor lands on the next item", func(t *testing.T) {
		n := build(t)
		require.NoError(t, n.Move(1, false))
		n.Remove(filepath.Join("d", "b.png"))

		cur, ok := n.Current()
		require.True(t, ok)
		assert.Equal(t, filepath.Join("d", "c.png"), cur.Path)
	})

	t.Run("Entry before current: index shifts down", func(t *testing.T) {
		n := build(t)
		require.NoError(t, n.Move(2, false))
		n.Remove(filepath.Join("d", "a.png"))

		cur, ok := n.Current()
		require.True(t, ok)
		assert.Equal(t, filepath.Join("d", "c.png"), cur.Path)
		assert.Equal(t, 1, n.Index())
	})

	t.Run("Last positioned entry while current", func(t *testing.T) {
		n := build(t)
		require.NoError(t, n.Move(2, false))
		n.Remove(filepath.Join("d", "c.png"))

		cur, ok := n.Current()
		require.True(t, ok)
		assert.Equal(t, filepath.Join("d", "b.png"), cur.Path)
	})

	t.Run("Last remaining entry empties the list", func(t *testing.T) {
		fsys := memFS(t, "d/a.png")
		n := NewNavigator(fsys, nil, nil)
		n.Rebuild([]string{"d"})
		n.Remove(filepath.Join("d", "a.png"))

		assert.Equal(t, 0, n.Len())
		_, ok := n.Current()
		assert.False(t, ok)
	})

	t.Run("Unknown path is ignored", func(t *testing.T) {
		n := build(t)
		n.Remove("d/zzz.png")
		assert.Equal(t, 3, n.Len())
	})
}

func TestZipArchiveExpansion(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")

	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"p1.png", "p2.jpg", "readme.txt"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	n := NewNavigator(afero.NewOsFs(), nil, nil)
	n.Rebuild([]string{archive})

	require.Len(t, n.Items(), 2)
	assert.Equal(t, archive+":p1.png", n.Items()[0].Path)
	assert.Equal(t, archive, n.Items()[0].ArchivePath)
	assert.Equal(t, "p1.png", n.Items()[0].EntryPath)
}

func TestIsArchiveExt(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.zip", true},
		{"a.RAR", true},
		{"a.7z", true},
		{"a.tar", false},
		{"a.png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsArchiveExt(tt.path), tt.path)
	}
}
