package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	cases := []struct {
		err     error
		kind    Kind
		warning bool
	}{
		{Formatf("bad magic %q", "XXXX"), Format, false},
		{Encodef("unsupported"), Encode, false},
		{Mappingf("unknown note %v", "g_zzz"), Mapping, true},
		{Constraintf("denominator %d", 3), Constraint, false},
		{MissingDataf("no release"), MissingData, true},
		{CapacityAt(1200, "auto lanes exhausted"), Capacity, false},
	}

	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			assert := assert.New(t)
			wrapped := errors.Wrap(c.err, "d0001.sq2")
			assert.True(Is(wrapped, c.kind))
			assert.Equal(c.warning, IsWarning(wrapped))
		})
	}
}

func TestCapacityMessageNamesTimestamp(t *testing.T) {
	assert := assert.New(t)
	err := CapacityAt(0, "no free bonus lane")
	assert.Equal("capacity error: no free bonus lane (timestamp 0)", err.Error())
	assert.False(Is(err, Format))
}
