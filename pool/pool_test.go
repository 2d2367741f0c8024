package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocAndReset(t *testing.T) {
	a := NewArena[int](4)
	ref, v := a.Alloc()
	*v = 42
	assert.Equal(t, 42, *a.Get(ref))
	assert.Equal(t, 1, a.Len())

	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Panics(t, func() { a.Get(ref) })
}

func TestArenaZeroRefInvalid(t *testing.T) {
	var r Ref
	assert.False(t, r.Valid())
}

func TestCharStoreImmutableSurvivesReset(t *testing.T) {
	src := []byte("hello world")
	store := NewCharStore(16)
	snap := store.Immutable(string(src[0:5]))
	require.Equal(t, "hello", snap)

	// Mutate the original source bytes; the snapshot must be unaffected
	// because Immutable copies into the arena's own buffer.
	copy(src, "XXXXX")
	assert.Equal(t, "hello", snap)

	store.Reset()
	assert.Equal(t, "hello", snap) // the Go string itself is still valid memory
}
