package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	h := New(func(args []any, kwargs map[string]any) (any, error) {
		return nil, nil
	}, nil)

	assert.Empty(t, h.Channel)
	assert.Equal(t, 0, h.Priority)
	assert.False(t, h.Filter)
	assert.False(t, h.WantsEvent)
	assert.NotEmpty(t, h.Label)
}

func TestNewWithOptions(t *testing.T) {
	h := New(func(args []any, kwargs map[string]any) (any, error) {
		return nil, nil
	}, []string{"foo"}, WithChannel("x"), WithPriority(10), WithFilter(), WithEvent(), WithLabel("custom"))

	assert.Equal(t, "x", h.Channel)
	assert.Equal(t, 10, h.Priority)
	assert.True(t, h.Filter)
	assert.True(t, h.WantsEvent)
	assert.Equal(t, "custom", h.Label)
}

func TestEffectiveChannel(t *testing.T) {
	h := New(nil, nil)
	assert.Equal(t, "*", h.EffectiveChannel("*"))

	h2 := New(nil, nil, WithChannel("a"))
	assert.Equal(t, "a", h2.EffectiveChannel("*"))
}

func TestMatchesName(t *testing.T) {
	catchAll := New(nil, nil)
	assert.True(t, catchAll.MatchesName("anything"))

	named := New(nil, []string{"foo", "bar"})
	assert.True(t, named.MatchesName("foo"))
	assert.False(t, named.MatchesName("baz"))
}

func TestMatchesChannel(t *testing.T) {
	h := New(nil, nil, WithChannel("a"))
	assert.True(t, h.MatchesChannel("*", "a"))
	assert.True(t, h.MatchesChannel("*", "*"))
	assert.False(t, h.MatchesChannel("*", "b"))

	inherited := New(nil, nil)
	assert.True(t, inherited.MatchesChannel("owner", "owner"))
	assert.True(t, inherited.MatchesChannel("*", "anything"))
}
