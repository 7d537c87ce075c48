package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchStrings(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	batches := BatchStrings(items, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, batches)

	assert.Equal(t, [][]string{items}, BatchStrings(items, 10))
	assert.Equal(t, [][]string{items}, BatchStrings(items, 0), "non-positive size yields one batch")
	assert.Empty(t, BatchStrings(nil, 3))
}
