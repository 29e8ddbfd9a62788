package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStr(t *testing.T) {
	tests := []struct {
		n       uint64
		binary  string
		decimal string
	}{
		{1649267441664, "1.50 TiB", "1.65 TB"},
		{1610612736, "1.50 GiB", "1.61 GB"},
		{1572864, "1.50 MiB", "1.57 MB"},
		{1536, "1.50 KiB", "1.54 KB"},
		{1024, "1024 B", "1.02 KB"},
		{1000, "1000 B", "1000 B"},
		{1, "1 B", "1 B"},
		{0, "0 B", "0 B"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.binary, Str(tt.n, Binary), "binary %d", tt.n)
		assert.Equal(t, tt.decimal, Str(tt.n, Decimal), "decimal %d", tt.n)
	}
}

func TestTime(t *testing.T) {
	assert.Equal(t, "0s", Time(0))
	assert.Equal(t, "45s", Time(45))
	assert.Equal(t, "60s", Time(60))
	assert.Equal(t, "2min 5s", Time(125))
	assert.Equal(t, "1h 0min 7s", Time(3607))
	assert.Equal(t, "2d 1h 0min 0s", Time(2*86400+3600))
}
