package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Scan(t *testing.T) {
	t.Run("lists regular files sorted", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o600))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.docx"), []byte("c"), 0o600))

		paths, err := New(dir).Scan()

		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.pdf"),
			filepath.Join(dir, "b.txt"),
			filepath.Join(dir, "sub", "c.docx"),
		}, paths)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("visible"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("hidden"), 0o600))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0o600))

		paths, err := New(dir).Scan()

		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "visible.txt")}, paths)
	})

	t.Run("applies the filter", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("k"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "drop.png"), []byte("d"), 0o600))

		w := New(dir, WithFilter(func(p string) bool { return strings.HasSuffix(p, ".txt") }))
		paths, err := w.Scan()

		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "keep.txt")}, paths)
	})

	t.Run("missing root returns error", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing")).Scan()
		assert.Error(t, err)
	})
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := New(dir, WithDebounce(50*time.Millisecond)).Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(dir, "new-file.txt")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

		select {
		case batch := <-changes:
			assert.Equal(t, []string{path}, batch)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change")
		}
	})

	t.Run("coalesces a burst of writes", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := New(dir, WithDebounce(200*time.Millisecond)).Watch(ctx)
		require.NoError(t, err)

		a := filepath.Join(dir, "a.txt")
		b := filepath.Join(dir, "b.txt")
		require.NoError(t, os.WriteFile(a, []byte("1"), 0o600))
		require.NoError(t, os.WriteFile(b, []byte("2"), 0o600))
		require.NoError(t, os.WriteFile(a, []byte("3"), 0o600))

		select {
		case batch := <-changes:
			assert.Equal(t, []string{a, b}, batch)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change")
		}
	})

	t.Run("closes the channel on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		changes, err := New(t.TempDir()).Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed")
		}
	})

	t.Run("missing root returns error", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing")).Watch(context.Background())
		assert.Error(t, err)
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},

		{"file.txt", false},
		{"path/to/file.txt", false},
		{"normal.file", false},
		{"directory.name/file", false},

		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		dir      bool
		op       fsnotify.Op
		expected bool
	}{
		{name: "create file", file: "doc.txt", op: fsnotify.Create, expected: true},
		{name: "write file", file: "doc.txt", op: fsnotify.Write, expected: true},
		{name: "remove is ignored", file: "doc.txt", op: fsnotify.Remove, expected: false},
		{name: "rename is ignored", file: "doc.txt", op: fsnotify.Rename, expected: false},
		{name: "chmod is ignored", file: "doc.txt", op: fsnotify.Chmod, expected: false},
		{name: "directory is ignored", file: "sub", dir: true, op: fsnotify.Create, expected: false},
		{name: "hidden file is ignored", file: ".doc.txt", op: fsnotify.Create, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if tt.dir {
				require.NoError(t, os.Mkdir(path, 0o755))
			} else {
				require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
			}

			got, ok := New(dir).handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})

			assert.Equal(t, tt.expected, ok)
			if tt.expected {
				assert.Equal(t, path, got)
			}
		})
	}
}
