package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(digest string, volume uint64, at time.Time) Record {
	return Record{
		Digest:       digest,
		Source:       "testdata/reboot.txt",
		Volume:       volume,
		Instructions: 22,
		Fragments:    7,
		Order:        "lifo",
		Clamped:      true,
		Elapsed:      3 * time.Millisecond,
		CreatedAt:    at,
	}
}

// backends returns a fresh store of every kind.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "cache", "cuboid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mem := NewMemory()
	t.Cleanup(func() { mem.Close() })

	return map[string]Store{"memory": mem, "sqlite": sqlite}
}

func TestPutGet(t *testing.T) {
	base := time.Unix(1700000000, 0)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			want := record("abc", 590784, base)

			// Act
			require.NoError(t, s.Put(want))
			got, ok, err := s.Get("abc")

			// Assert
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want.Volume, got.Volume)
			assert.Equal(t, want.Source, got.Source)
			assert.Equal(t, want.Instructions, got.Instructions)
			assert.Equal(t, want.Fragments, got.Fragments)
			assert.Equal(t, want.Order, got.Order)
			assert.Equal(t, want.Clamped, got.Clamped)
			assert.Equal(t, want.Elapsed, got.Elapsed)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, want.CreatedAt)
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("nope")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVolumeAboveInt64(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(record("huge", math.MaxUint64, time.Unix(1, 0))))
			got, ok, err := s.Get("huge")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint64(math.MaxUint64), got.Volume)
		})
	}
}

func TestPutReplaces(t *testing.T) {
	base := time.Unix(1700000000, 0)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(record("abc", 1, base)))
			require.NoError(t, s.Put(record("abc", 2, base.Add(time.Second))))

			got, ok, err := s.Get("abc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint64(2), got.Volume)

			all, err := s.List(0)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	base := time.Unix(1700000000, 0)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, d := range []string{"a", "b", "c"} {
				require.NoError(t, s.Put(record(d, uint64(i), base.Add(time.Duration(i)*time.Minute))))
			}

			all, err := s.List(0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"c", "b", "a"}, digests(all))

			two, err := s.List(2)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "b"}, digests(two))
		})
	}
}

func digests(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Digest
	}
	return out
}

func TestSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cuboid.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(record("abc", 39, time.Unix(5, 0))))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get("abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(39), got.Volume)
}

func TestSQLiteRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cuboid.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE schema_version SET version = ?", SchemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewSQLite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Put(record("a", 1, time.Now())), ErrClosed)
	_, _, err := m.Get("a")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.List(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(Config{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}
