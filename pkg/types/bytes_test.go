package types

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Bytes
		want string
	}{
		{Bytes(0), "0 B"},
		{Bytes(1023), "1023 B"},
		{Bytes(1024), "1.00 KB"},
		{Bytes(1024 * 1024), "1.00 MB"},
		{Bytes(1024*1024*1024 - 1), "1024.00 MB"},
		{Bytes(1024 * 1024 * 1024), "1.00 GB"},
		{Bytes(1 << 40), "1.00 TB"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%d", i, uint64(tc.in)), func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Humanized())
		})
	}
}

func TestBytes_Humanized_NonRound(t *testing.T) {
	assert.Equal(t, "1.50 KB", Bytes(1536).Humanized())

	b := Bytes(uint64(math.Round(2.75 * float64(1<<30))))
	assert.Equal(t, "2.75 GB", b.Humanized())
}

func TestBytes_GB(t *testing.T) {
	assert.InDelta(t, 1.0, Bytes(1<<30).GB(), 1e-12)
	assert.InDelta(t, 8.0, Bytes(8<<30).GB(), 1e-12)
	assert.InDelta(t, 0.5, Bytes(512<<20).GB(), 1e-12)
}
