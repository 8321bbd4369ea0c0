package table_test

import (
	"testing"

	"github.com/mna/glox/lang/table"
	"github.com/mna/glox/lang/value"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	tbl := table.New()
	a := value.NewString([]byte("a"))
	b := value.NewString([]byte("b"))

	require.True(t, tbl.Set(a, value.Number(1)))
	require.False(t, tbl.Set(a, value.Number(2))) // overwrite, not new

	v, ok := tbl.Get(a)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)

	_, ok = tbl.Get(b)
	require.False(t, ok)

	require.True(t, tbl.Delete(a))
	_, ok = tbl.Get(a)
	require.False(t, ok)
	require.False(t, tbl.Delete(a))
}

func TestGrowAndProbe(t *testing.T) {
	tbl := table.New()
	keys := make([]*value.String, 0, 64)
	for i := 0; i < 64; i++ {
		k := value.NewString([]byte{byte(i)})
		keys = append(keys, k)
		tbl.Set(k, value.Number(float64(i)))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, value.Number(float64(i)), v)
	}
}

func TestTombstoneReuse(t *testing.T) {
	tbl := table.New()
	a := value.NewString([]byte("a"))
	b := value.NewString([]byte("b"))
	tbl.Set(a, value.Number(1))
	tbl.Set(b, value.Number(2))
	tbl.Delete(a)

	// lookups of b must not regress (the probe chain through the tombstone
	// left by deleting a must stay intact)
	v, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)

	// inserting a again goes into the tombstone slot as a brand-new key, and
	// b stays reachable
	require.True(t, tbl.Set(a, value.Number(3)))
	v, ok = tbl.Get(a)
	require.True(t, ok)
	require.Equal(t, value.Number(3), v)
	v, ok = tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)
}

func TestFindString(t *testing.T) {
	tbl := table.New()
	s := value.NewString([]byte("hello"))
	tbl.Set(s, value.Nil)

	found := tbl.FindString([]byte("hello"), value.FNV1a([]byte("hello")))
	require.Same(t, s, found)

	require.Nil(t, tbl.FindString([]byte("nope"), value.FNV1a([]byte("nope"))))
}

func TestRemoveWhite(t *testing.T) {
	tbl := table.New()
	marked := value.NewString([]byte("kept"))
	marked.Marked = true
	unmarked := value.NewString([]byte("dropped"))

	tbl.Set(marked, value.Nil)
	tbl.Set(unmarked, value.Nil)
	tbl.RemoveWhite()

	_, ok := tbl.Get(marked)
	require.True(t, ok)
	_, ok = tbl.Get(unmarked)
	require.False(t, ok)
}
