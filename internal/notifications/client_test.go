package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientTrySendDropsWhenFull(t *testing.T) {
	c := NewClient(nil, "u1")
	for i := 0; i < cap(c.Send); i++ {
		c.TrySend([]byte("x"))
	}
	assert.NotPanics(t, func() { c.TrySend([]byte("overflow")) })
	assert.Len(t, c.Send, cap(c.Send))
}
