package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single word", "Foo", "foo"},
		{"two words", "GenerateEvents", "generate_events"},
		{"three words", "HandlerRaisedError", "handler_raised_error"},
		{"already lower", "foo", "foo"},
		{"empty", "", ""},
		{"acronym run", "HTTPServer", "http_server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnakeCase(tt.input))
		})
	}
}

func TestDerivedName(t *testing.T) {
	origin := New("Foo")
	assert.Equal(t, "foo_success", derivedName(origin, "success"))

	literal := NewLiteral("MyEvent")
	assert.Equal(t, "MyEvent_done", derivedName(literal, "done"))
}

func TestIsDerived(t *testing.T) {
	origin := New("Foo")
	success := Success(origin, 1)
	assert.True(t, IsDerived(origin, "success", success.Name))
	assert.False(t, IsDerived(origin, "complete", success.Name))
}
