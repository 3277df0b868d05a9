package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Format Kind = iota
	Encode
	Mapping
	Capacity
	Constraint
	MissingData
)

func (k Kind) String() string {
	switch k {
	case Format:
		return "format error"
	case Encode:
		return "encode error"
	case Mapping:
		return "mapping error"
	case Capacity:
		return "capacity error"
	case Constraint:
		return "constraint error"
	case MissingData:
		return "missing data"
	}
	return "unknown error"
}

type Error struct {
	Kind      Kind
	Msg       string
	Timestamp int
	// NOTE: timestamp 0 is a real position, so presence needs its own flag
	HasTimestamp bool
}

func (e *Error) Error() string {
	if e.HasTimestamp {
		return fmt.Sprintf("%v: %v (timestamp %d)", e.Kind, e.Msg, e.Timestamp)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Msg)
}

// Mapping and missing data problems are reported and the conversion carries on.
func (e *Error) Warning() bool {
	return e.Kind == Mapping || e.Kind == MissingData
}

func newf(k Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: k, Msg: fmt.Sprintf(format, args...)})
}

func Formatf(format string, args ...interface{}) error {
	return newf(Format, format, args...)
}

func Encodef(format string, args ...interface{}) error {
	return newf(Encode, format, args...)
}

func Mappingf(format string, args ...interface{}) error {
	return newf(Mapping, format, args...)
}

func Constraintf(format string, args ...interface{}) error {
	return newf(Constraint, format, args...)
}

func MissingDataf(format string, args ...interface{}) error {
	return newf(MissingData, format, args...)
}

func CapacityAt(timestamp int, format string, args ...interface{}) error {
	return errors.WithStack(&Error{
		Kind:         Capacity,
		Msg:          fmt.Sprintf(format, args...),
		Timestamp:    timestamp,
		HasTimestamp: true,
	})
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func Is(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

func IsWarning(err error) bool {
	e, ok := As(err)
	return ok && e.Warning()
}
