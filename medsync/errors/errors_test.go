package errors

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRequestTimeoutErrorMessage(t *testing.T) {
	err := &RequestTimeoutError{Timeout: 100 * time.Millisecond}
	assert.Equal(t, "Request timeout after 100ms", err.Error())

	err = &RequestTimeoutError{Timeout: 2 * time.Second}
	assert.Equal(t, "Request timeout after 2000ms", err.Error())
}

func TestOperationOutcomeErrorMessage(t *testing.T) {
	err := &OperationOutcomeError{
		Messages:   []string{"Missing required field: name", "Invalid date format"},
		StatusCode: 422,
	}
	assert.Equal(t, "Missing required field: name; Invalid date format", err.Error())
	assert.Equal(t, "OperationOutcome", err.ResourceType())
}

func TestUnexpectedStatusCodeErrorMessage(t *testing.T) {
	err := &UnexpectedStatusCodeError{StatusCode: 502, Status: "Bad Gateway"}
	assert.Equal(t, "HTTP 502: Bad Gateway", err.Error())
}

func TestIsConnectivity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", &RequestTimeoutError{Timeout: time.Second}, true},
		{"wrapped timeout", errors.Wrap(&RequestTimeoutError{Timeout: time.Second}, "replay"), true},
		{"transport", &url.Error{Op: "Get", URL: "http://localhost:1", Err: fmt.Errorf("connection refused")}, true},
		{"operation outcome", &OperationOutcomeError{Messages: []string{"bad"}, StatusCode: 400}, false},
		{"opaque status", &UnexpectedStatusCodeError{StatusCode: 500, Status: "Internal Server Error"}, false},
		{"plain error", fmt.Errorf("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivity(tt.err))
		})
	}
}
