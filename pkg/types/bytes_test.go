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
		{Bytes(1024*1024 - 1), "1024.00 KB"},
		{Bytes(1024 * 1024), "1.00 MB"},
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
	b := ToBytes(uint64(math.Round(12.345 * float64(1<<20))))
	assert.Equal(t, "12.35 MB", b.Humanized())
	assert.Equal(t, "4096.00 TB", Bytes(1<<52).Humanized(), "TB is the largest unit")
}
