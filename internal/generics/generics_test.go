package generics

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	m := map[int]string{1: "1", 5: "5", 3: "3"}
	want := []int{1, 3, 5}
	// The builtin map iterator is deliberately non-deterministic; run it a bunch of times to
	// show SortedKeys is stable regardless.
	for range 100 {
		got := slices.Collect(SortedKeys(m))
		require.Equal(t, want, got)
	}
}

func TestKeysSlice(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	got := KeysSlice(m)
	slices.Sort(got)
	require.Equal(t, []string{"a", "b"}, got)
}

func TestSliceMap(t *testing.T) {
	got := SliceMap([]int{1, 2, 3}, func(e int) int { return e * e })
	require.Equal(t, []int{1, 4, 9}, got)
}

func TestSet(t *testing.T) {
	s := MakeSet[int](10)
	require.Len(t, s, 0)

	s.Insert(3, 7)
	require.Len(t, s, 2)
	require.True(t, s.Has(3))
	require.True(t, s.Has(7))
	require.False(t, s.Has(5))
}
