package common

import (
	"testing"

	"github.com/tj/assert"
)

func TestStripPunctuation(t *testing.T) {
	assert.Equal(t, "Whats the weather in Berlin", StripPunctuation("What's the weather in Berlin?"))
	assert.Equal(t, "Sao Paulo", StripPunctuation("Sao Paulo!!"))
	assert.Equal(t, "", StripPunctuation("?!."))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Berlin", Capitalize("berlin"))
	assert.Equal(t, "New York", Capitalize("new york"))
	assert.Equal(t, "", Capitalize(""))
}

func TestOneOf(t *testing.T) {
	assert.True(t, OneOf("in", "in", "at", "for"))
	assert.False(t, OneOf("inside", "in", "at", "for"))
	assert.False(t, OneOf("in"))
}
