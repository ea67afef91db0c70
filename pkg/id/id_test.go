package id

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortedByMintOrder(t *testing.T) {
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = New()
	}

	assert.True(t, sort.StringsAreSorted(ids))
	for _, s := range ids {
		assert.True(t, Valid(s), s)
	}
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-a-ulid"))
	assert.True(t, Valid("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}
