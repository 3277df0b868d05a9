package seqp

import (
	"math"
	"testing"

	"github.com/jsphweid/seqconv/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords(t *testing.T) {
	assert := assert.New(t)
	data := make([]byte, ChartHeader+3*4)
	for i := range data[ChartHeader:] {
		data[ChartHeader+i] = byte(i / 4)
	}

	h := Header{Magic: "TEST", HeaderSize: ChartHeader, Count: 3}
	records, err := h.Records(data, 4)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal([]byte{2, 2, 2, 2}, records[2])

	cases := []struct {
		name   string
		header Header
		size   int
	}{
		{"count past the data", Header{Magic: "TEST", HeaderSize: ChartHeader, Count: 4}, 4},
		{"count that overflows", Header{Magic: "TEST", HeaderSize: ChartHeader, Count: math.MaxInt / 2}, 1 << 10},
		{"negative count", Header{Magic: "TEST", HeaderSize: ChartHeader, Count: -1}, 4},
		{"zero size", Header{Magic: "TEST", HeaderSize: ChartHeader, Count: 3}, 0},
		{"header past the data", Header{Magic: "TEST", HeaderSize: len(data) + 1, Count: 0}, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.header.Records(data, c.size)
			assert.True(errs.Is(err, errs.Format))
		})
	}
}
