package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileFold(t *testing.T) {
	res := CompileFold(`offer\s+letter`, `unfortunately`)
	assert.Len(t, res, 2)

	m := MatchAny(res, "Your OFFER   Letter is attached")
	if assert.NotNil(t, m) {
		assert.Equal(t, `(?i)offer\s+letter`, m.String())
	}
	assert.Nil(t, MatchAny(res, "weekly newsletter"))
}

func TestCompileFoldPanicsOnInvalidPattern(t *testing.T) {
	assert.Panics(t, func() { CompileFold(`([a-z`) })
}
