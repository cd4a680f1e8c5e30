package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/transport"
	"github.com/flowerfulfort/scurl/internal/wire"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry() *Entry {
	return &Entry{
		Method:      "GET",
		URL:         "http://example.com/",
		FinalURL:    "http://example.com/home",
		StatusCode:  200,
		Reason:      "OK",
		Redirects:   1,
		BodyBytes:   1234,
		ContentType: "text/html",
		Duration:    42 * time.Millisecond,
	}
}

func TestSQLiteStore_SaveAndLoadByID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	e := sampleEntry()
	require.NoError(t, store.Save(ctx, e))
	require.NotEmpty(t, e.ID, "Save assigns an ID")
	require.False(t, e.CreatedAt.IsZero())

	got, err := store.LoadByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "http://example.com/", got.URL)
	assert.Equal(t, "http://example.com/home", got.FinalURL)
	assert.Equal(t, 200, got.StatusCode)
	assert.Equal(t, "OK", got.Reason)
	assert.Equal(t, 1, got.Redirects)
	assert.Equal(t, int64(1234), got.BodyBytes)
	assert.Equal(t, "text/html", got.ContentType)
	assert.Equal(t, 42*time.Millisecond, got.Duration)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.Failed())
}

func TestSQLiteStore_LoadNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.LoadByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_SaveUpdate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	e := sampleEntry()
	require.NoError(t, store.Save(ctx, e))
	e.StatusCode = 500
	e.Error = "boom"
	require.NoError(t, store.Save(ctx, e))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 500, entries[0].StatusCode)
	assert.True(t, entries[0].Failed())
}

func TestSQLiteStore_List(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := sampleEntry()
		e.ID = string(rune('a' + i))
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, e))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "e", all[0].ID, "newest first")
	assert.Equal(t, "a", all[4].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []string{"e", "d"}, []string{limited[0].ID, limited[1].ID})
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	entries, err := newStore(t).List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	e := sampleEntry()
	require.NoError(t, store.Save(ctx, e))
	require.NoError(t, store.Delete(ctx, e.ID))

	_, err := store.LoadByID(ctx, e.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, e.ID), ErrNotFound))
}

func TestSQLiteStore_ResolveID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"abc-1", "abd-2", "xyz-3"} {
		e := sampleEntry()
		e.ID = id
		require.NoError(t, store.Save(ctx, e))
	}

	id, err := store.ResolveID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc-1", id)

	id, err = store.ResolveID(ctx, "xyz-3")
	require.NoError(t, err)
	assert.Equal(t, "xyz-3", id)

	_, err = store.ResolveID(ctx, "ab")
	assert.True(t, errors.Is(err, ErrAmbiguous))

	_, err = store.ResolveID(ctx, "q")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.ResolveID(ctx, "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_Cleanup(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	old := sampleEntry()
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Save(ctx, old))

	fresh := sampleEntry()
	require.NoError(t, store.Save(ctx, fresh))

	deleted, err := store.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	e := sampleEntry()
	require.NoError(t, store.Save(ctx, e))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.URL, got.URL)
}

func TestSQLiteStore_Close(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.NoError(t, (&SQLiteStore{}).Close())
}

// --------------------------------------------------------------------------
// FromResult
// --------------------------------------------------------------------------

func TestFromResult(t *testing.T) {
	head, err := wire.ParseHead("HTTP/1.1 404 Not Found\r\nContent-Type: text/plain")
	require.NoError(t, err)

	e := FromResult(&transport.Result{
		Method:    "POST",
		Origin:    "http://h/a",
		URL:       "http://h/b",
		Head:      head,
		Redirects: 1,
		BodyBytes: 9,
		Duration:  time.Second,
	}, nil)

	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, "http://h/a", e.URL)
	assert.Equal(t, "http://h/b", e.FinalURL)
	assert.Equal(t, 404, e.StatusCode)
	assert.Equal(t, "Not Found", e.Reason)
	assert.Equal(t, "text/plain", e.ContentType)
	assert.Equal(t, int64(9), e.BodyBytes)
	assert.False(t, e.Failed())
}

func TestFromResult_Error(t *testing.T) {
	e := FromResult(&transport.Result{Method: "GET", Origin: "http://h/"},
		errdef.New(errdef.CodeTransport, "connect to h:80: refused"))

	assert.Equal(t, 0, e.StatusCode)
	assert.Equal(t, "transport", e.ErrorCode)
	assert.Equal(t, "connect to h:80: refused", e.Error)
	assert.True(t, e.Failed())
}
