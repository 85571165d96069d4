package random

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SeededSourceIsDeterministic(t *testing.T) {
	req := require.New(t)

	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 16; i++ {
		va := a.Float64()
		req.Equal(va, b.Float64())
		req.GreaterOrEqual(va, 0.0)
		req.Less(va, 1.0)
	}
}
