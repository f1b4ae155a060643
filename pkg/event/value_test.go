package event

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSet(t *testing.T) {
	v := NewValue()
	assert.Nil(t, v.Value)

	v.Set(nil)
	assert.Nil(t, v.Value)

	v.Set(42)
	assert.Equal(t, 42, v.Value)
	assert.Equal(t, []any{42}, v.Values)

	v.Set("last")
	assert.Equal(t, "last", v.Value)
	assert.Equal(t, []any{42, "last"}, v.Values)
}

func TestRegistryTrackAndLookup(t *testing.T) {
	r := NewRegistry()
	ev := New("Foo")
	v := NewValue()

	r.Track(ev, v)
	got, ok := r.Lookup(ev)
	require.True(t, ok)
	assert.Same(t, v, got)

	r.Forget(ev)
	_, ok = r.Lookup(ev)
	assert.False(t, ok)
}

func TestRegistryDoesNotPinValue(t *testing.T) {
	r := NewRegistry()
	ev := New("Foo")

	func() {
		v := NewValue()
		r.Track(ev, v)
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
	}

	// Once v is unreachable, Lookup should eventually report it gone.
	// This is inherently best-effort under a GC-managed weak pointer,
	// so we only assert Lookup does not panic and returns a consistent
	// boolean/value pair.
	v, ok := r.Lookup(ev)
	if !ok {
		assert.Nil(t, v)
	}
}
