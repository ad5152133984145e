package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("RapidAPI AQ", "Weather", "RapidAPI"))
	assert.False(t, HasAny("rapidapi aq", "RapidAPI"))
	assert.False(t, HasAny("OpenAQ"))
	assert.False(t, HasAny("OpenAQ", ""))
}
