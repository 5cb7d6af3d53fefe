package usage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNote_CountsEveryCall(t *testing.T) {
	var counts Counts
	require.Equal(t, 0, counts.Count("mistral"))

	for i := 0; i < 5; i++ {
		counts = Note(counts, "mistral")
	}
	require.Equal(t, 5, counts.Count("mistral"))
	require.Equal(t, 0, counts.Count("Mistral"))
}

func TestSorted_CountThenName(t *testing.T) {
	counts := Counts{"a": 2, "b": 2, "c": 3}
	require.Equal(t, []string{"c", "a", "b"}, counts.Sorted())
}

func TestSorted_DeterministicAcrossTies(t *testing.T) {
	counts := Counts{"zeta": 1, "alpha": 1, "mid": 1, "top": 9}
	for i := 0; i < 20; i++ {
		require.Equal(t, []string{"top", "alpha", "mid", "zeta"}, counts.Sorted())
	}
}

func TestSorted_Uninitialized(t *testing.T) {
	var counts Counts
	require.Empty(t, counts.Sorted())
	require.NotNil(t, counts.Sorted())
}

func TestClone_Independent(t *testing.T) {
	counts := Counts{"a": 1}
	cloned := counts.Clone()
	cloned["a"] = 7
	require.Equal(t, 1, counts.Count("a"))
	require.Nil(t, Counts(nil).Clone())
}
