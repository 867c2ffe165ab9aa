package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessagesCarryContext(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		contains    string
	}{
		{"parse error", &ParseError{Definition: "1 +", Pos: 3, Reason: "unexpected end of input"}, "1 +"},
		{"lookup error with arity", &LookupError{Kind: "function", Name: "zonal_mean", Arity: 2}, "arity 2"},
		{"lookup error without arity", &LookupError{Kind: "variable", Name: "temp", Arity: -1}, "temp"},
		{"consistency error", &ConsistencyError{Subject: "lat", Files: []string{"a.bin"}, Reason: "size mismatch"}, "lat"},
		{"units error", &UnitsError{From: "K", To: "m", Reason: "incompatible dimensions"}, "K"},
		{"dimensions error", &DimensionsError{From: []string{"lat", "lon"}, To: []string{"lon"}}, "lon"},
		{"cycle error", &CycleError{Path: []string{"a", "b", "a"}}, "cycle"},
		{"cast error", &CastError{Variable: "tas", From: "double", To: "byte", Reason: "cross-kind"}, "tas"},
		{"io error", &IOError{Path: "mem://out", Op: "upload", Cause: errors.New("disk full")}, "mem://out"},
		{"execution error", &ExecutionError{File: "out.bin", Variable: "tas", Reason: "write failed"}, "out.bin"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Contains(t, tc.err.Error(), tc.contains)
		})
	}
}

func TestParseErrorUnwraps(t *testing.T) {
	cause := errors.New("lex failure")
	err := &ParseError{Definition: "x", Cause: cause}
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIOErrorUnwraps(t *testing.T) {
	cause := errors.New("network timeout")
	err := &IOError{Path: "p", Cause: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestExecutionErrorUnwraps(t *testing.T) {
	cause := errors.New("short write")
	err := &ExecutionError{Cause: cause}
	assert.True(t, errors.Is(err, cause))
}
