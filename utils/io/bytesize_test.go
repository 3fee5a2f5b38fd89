package io_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacahq/eventstore/utils/io"
)

func TestParseByteSize(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		in      string
		want    int
		wantErr bool
	}{
		"plain bytes":   {in: "4096", want: 4096},
		"kilobytes":     {in: "64K", want: 64 * 1024},
		"kilobytes, KB": {in: "64KB", want: 64 * 1024},
		"megabytes":     {in: "1M", want: 1024 * 1024},
		"padded":        {in: " 128 ", want: 128},
		"negative":      {in: "-1", wantErr: true},
		"garbage":       {in: "lots", wantErr: true},
	}
	for name := range tests {
		tt := tests[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := io.ParseByteSize(tt.in)
			if tt.wantErr {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatByteSizeRoundTrip(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 256, 1100, 3000, 4096, 5000, 64 * 1024, 100000, 1024 * 1024} {
		got, err := io.ParseByteSize(io.FormatByteSize(n))
		require.Nil(t, err)
		assert.Equal(t, n, got, "%d formatted as %q", n, io.FormatByteSize(n))
	}
}

func TestFormatByteSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "64K", io.FormatByteSize(64*1024))
	assert.Equal(t, "256B", io.FormatByteSize(256))
	assert.Equal(t, "3000", io.FormatByteSize(3000))
	assert.Equal(t, "1100", io.FormatByteSize(1100))
}
