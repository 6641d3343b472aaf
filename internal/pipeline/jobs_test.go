package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomDelaySeconds_WithinSpecBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := randomDelaySeconds()
		assert.GreaterOrEqual(t, d, 3)
		assert.LessOrEqual(t, d, 10)
	}
}

func TestExecutedOrdersClientID_IsHardCoded(t *testing.T) {
	// Preserved per the specification's open questions: the per-client
	// executed-order history key is effectively global.
	assert.Equal(t, "ABCD", executedOrdersClientID)
}
