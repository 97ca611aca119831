package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHiddenStatus(t *testing.T) {
	hidden := []string{"idea", "Idea", "IDEA", "maybe", "Maybe", "cancelled", "CANCELLED"}
	for _, s := range hidden {
		assert.True(t, IsHiddenStatus(s), s)
	}

	visible := []string{"", "Confirmed", "confirmed", "Done", "canceled"}
	for _, s := range visible {
		assert.False(t, IsHiddenStatus(s), s)
	}
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 0, PriorityRank("p1"))
	assert.Equal(t, 1, PriorityRank("p2"))
	assert.Equal(t, 2, PriorityRank("p3"))
	assert.Equal(t, 3, PriorityRank(""))
	assert.Equal(t, 3, PriorityRank("urgent"))
}
