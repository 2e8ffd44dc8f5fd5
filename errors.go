package terrastore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/terrastore/datastore"
)

var (
	// ErrInvalidLocation is returned when a location, data type or scenario
	// id cannot form a key.
	ErrInvalidLocation = errors.New("invalid location, data type or scenario id")

	// ErrInvalidBackupKey is returned when a key does not name a backup.
	ErrInvalidBackupKey = errors.New("not a backup key")
)

// DataError is the user-facing failure of a convention helper:
// "could not load data for arizona/territory".
//
// The original storage error can be accessed via errors.Unwrap, and
// errors.Is matches the datastore sentinels (e.g. datastore.ErrParse).
type DataError struct {
	Op       string
	Location string
	Kind     string
	Code     datastore.ErrorCode
	cause    error
}

func (e *DataError) Error() string {
	target := e.Location
	if e.Kind != "" {
		target += "/" + e.Kind
	}
	msg := fmt.Sprintf("could not %s data for %s", e.Op, target)
	if e.Code != "" {
		msg += " (" + string(e.Code) + ")"
	}
	return msg
}

func (e *DataError) Unwrap() error { return e.cause }

func dataError(op, location, kind string, err error) error {
	if err == nil {
		return nil
	}
	return &DataError{
		Op:       op,
		Location: location,
		Kind:     kind,
		Code:     datastore.CodeOf(err),
		cause:    err,
	}
}
