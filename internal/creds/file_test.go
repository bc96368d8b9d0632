package creds

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()

	s, err := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, err)

	return s
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestFileStore_GetMissingKey(t *testing.T) {
	t.Parallel()

	s := newFileStore(t)

	// Файла ещё нет — это пустое хранилище, а не ошибка.
	v, err := s.Get(context.Background(), KeyAuthToken)
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestFileStore_SetGetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newFileStore(t)

	require.NoError(t, s.Set(ctx, KeyAuthToken, "T1"))
	require.NoError(t, s.Set(ctx, KeyRefreshToken, "R1"))
	require.NoError(t, s.Set(ctx, KeyAuthToken, "T2"))

	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "T2", v)

	v, err = s.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "R1", v)
}

func TestFileStore_RemoveAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newFileStore(t)

	for _, k := range SessionKeys {
		require.NoError(t, s.Set(ctx, k, "v"))
	}
	require.NoError(t, s.Set(ctx, KeyProfileCache, "cached"))

	require.NoError(t, s.RemoveAll(ctx, SessionKeys...))

	for _, k := range SessionKeys {
		v, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.Empty(t, v)
	}

	// Ключи вне сессии удаление не затрагивает.
	v, err := s.Get(ctx, KeyProfileCache)
	require.NoError(t, err)
	require.Equal(t, "cached", v)
}

func TestFileStore_FilePermissions(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	path := filepath.Join(t.TempDir(), "creds.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), KeyAuthToken, "T1"))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestFileStore_CreatesParentDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "creds.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), KeyAuthToken, "T1"))

	v, err := s.Get(context.Background(), KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "T1", v)
}

func TestFileStore_CancelledContext(t *testing.T) {
	t.Parallel()

	s := newFileStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, KeyAuthToken)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Set(ctx, KeyAuthToken, "T1"), context.Canceled)
	require.ErrorIs(t, s.RemoveAll(ctx, KeyAuthToken), context.Canceled)
}

func TestFileStore_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newFileStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := s.Set(ctx, KeyAuthToken, "T"); err != nil {
					errs[i] = err
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "T", v)
}
