package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}

	assert.NoError(t, WrapError(nil, "ignored"))
}

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name            string
		section         string
		field           string
		reason          string
		expectedMessage string
	}{
		{
			name:            "section and field",
			section:         "options",
			field:           "type",
			reason:          "bad value",
			expectedMessage: "configuration error in section 'options', field 'type': bad value",
		},
		{
			name:            "section only",
			section:         "options",
			reason:          "bad value",
			expectedMessage: "configuration error in section 'options': bad value",
		},
		{
			name:            "reason only",
			reason:          "bad value",
			expectedMessage: "configuration error: bad value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.section, tt.field, tt.reason)
			assert.Equal(t, tt.expectedMessage, err.Error())
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("no such host")
	err := WrapError(NewNetworkError("https://example.com", "HTTP request failed", cause), "fetch")

	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.ErrorIs(t, err, cause)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Equal(t, "https://example.com", netErr.URL)
	assert.Equal(t, "network error for 'https://example.com': HTTP request failed: no such host", netErr.Error())
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewParseError("stored snapshot", "invalid JSON", cause)

	assert.Equal(t, "failed to parse stored snapshot: invalid JSON: unexpected end of JSON input", err.Error())
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNetworkFailure)

	assert.Equal(t, "failed to parse body: empty", NewParseError("body", "empty", nil).Error())
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil))

	single := errors.New("one")
	assert.Same(t, single, CombineErrors([]error{single}))

	combined := CombineErrors([]error{errors.New("one"), errors.New("two")})
	assert.EqualError(t, combined, "multiple errors occurred: [one; two]")
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.HasErrors())
	assert.NoError(t, ec.Error())

	ec.Add(nil)
	ec.Add(errors.New("first"))
	ec.Add(errors.New("second"))

	assert.True(t, ec.HasErrors())
	assert.Len(t, ec.Errors(), 2)
	assert.EqualError(t, ec.Error(), "multiple errors occurred: [first; second]")
}
