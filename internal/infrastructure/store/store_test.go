package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	boltStore, err := OpenBolt(filepath.Join(dir, "state.db"))
	require.NoError(t, err)

	sqliteStore, err := OpenSQLite(filepath.Join(dir, "state.sqlite"))
	require.NoError(t, err)

	compressed, err := NewCompressed(NewMemory())
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":     NewMemory(),
		"bolt":       boltStore,
		"sqlite":     sqliteStore,
		"compressed": compressed,
	}
	t.Cleanup(func() {
		for _, st := range stores {
			st.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Set(ctx, "session", []byte(`{"v":1}`)))
			got, err := st.Get(ctx, "session")
			require.NoError(t, err)
			assert.Equal(t, `{"v":1}`, string(got))

			// Set replaces the whole slot
			require.NoError(t, st.Set(ctx, "session", []byte(`{}`)))
			got, err = st.Get(ctx, "session")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))

			require.NoError(t, st.Set(ctx, "other", []byte("raw-id")))
			require.NoError(t, st.Remove(ctx, "session"))
			_, err = st.Get(ctx, "session")
			assert.ErrorIs(t, err, ErrNotFound)

			got, err = st.Get(ctx, "other")
			require.NoError(t, err)
			assert.Equal(t, "raw-id", string(got))

			// removing an empty slot is not an error
			assert.NoError(t, st.Remove(ctx, "session"))
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	data := []byte("abc")
	require.NoError(t, st.Set(ctx, "k", data))
	data[0] = 'z'

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", []byte("v")))
	require.NoError(t, st.Close())

	st, err = OpenBolt(path)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestCompressedStoresCompressedBytes(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	st, err := NewCompressed(inner)
	require.NoError(t, err)
	defer st.Close()

	payload := bytes.Repeat([]byte(`{"role":"assistant","content":"..."}`), 200)
	require.NoError(t, st.Set(ctx, "k", payload))

	raw, err := inner.Get(ctx, "k")
	require.NoError(t, err)
	assert.Less(t, len(raw), len(payload))

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Driver: DriverMemory}, false},
		{"bolt default driver", Config{Path: filepath.Join(dir, "a", "state.db")}, false},
		{"sqlite compressed", Config{Driver: DriverSQLite, Path: filepath.Join(dir, "b", "state.sqlite"), Compress: true}, false},
		{"bolt without path", Config{Driver: DriverBolt}, true},
		{"unknown driver", Config{Driver: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, st.Close())
		})
	}
}
