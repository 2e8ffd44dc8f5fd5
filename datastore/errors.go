package datastore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a storage failure.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeParse            ErrorCode = "PARSE_ERROR"
	CodeIO               ErrorCode = "IO_ERROR"
	CodeNetwork          ErrorCode = "NETWORK_ERROR"
	CodeConnection       ErrorCode = "CONNECTION_ERROR"
	CodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	CodeInvalidKey       ErrorCode = "INVALID_KEY"
	CodeSerialize        ErrorCode = "SERIALIZE_ERROR"
)

// Sentinels matching a StorageError of the same code via errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrParse            = errors.New("malformed stored content")
	ErrIO               = errors.New("i/o failure")
	ErrNetwork          = errors.New("network failure")
	ErrConnection       = errors.New("connection failure")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidKey       = errors.New("invalid key")
	ErrSerialize        = errors.New("document not serializable")
)

var sentinels = map[ErrorCode]error{
	CodeNotFound:         ErrNotFound,
	CodeParse:            ErrParse,
	CodeIO:               ErrIO,
	CodeNetwork:          ErrNetwork,
	CodeConnection:       ErrConnection,
	CodeCapacityExceeded: ErrCapacityExceeded,
	CodeInvalidKey:       ErrInvalidKey,
	CodeSerialize:        ErrSerialize,
}

// StorageError is a classified storage failure.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type StorageError struct {
	Op    string
	Key   string
	Code  ErrorCode
	cause error
}

// NewError creates a StorageError.
func NewError(op, key string, code ErrorCode, cause error) *StorageError {
	return &StorageError{Op: op, Key: key, Code: code, cause: cause}
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q: %s", e.Op, e.Key, e.Code)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.cause }

// Is matches the sentinel of the error's code.
func (e *StorageError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// ParseCode returns the code named in msg as rendered by StorageError.Error,
// or "" if msg names none. Results carry errors as strings; this recovers
// their classification.
func ParseCode(msg string) ErrorCode {
	var (
		found ErrorCode
		at    = -1
	)
	for code := range sentinels {
		i := strings.Index(msg, ": "+string(code))
		if i >= 0 && (at < 0 || i < at) {
			found, at = code, i
		}
	}
	return found
}

// CodeOf returns the ErrorCode of err, or "" if err is not a StorageError.
func CodeOf(err error) ErrorCode {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
