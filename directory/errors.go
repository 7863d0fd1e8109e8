// ABOUTME: Errors returned by the directory service before any write happens
// ABOUTME: ValidationError for bad payloads, ConsistencyError for batches that would break the chart
package directory

import (
	"fmt"
	"strings"

	"github.com/harperreed/orgmap/orgchart"
)

// ValidationError rejects a payload field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConsistencyError rejects a batch whose result would leave the chart inconsistent.
type ConsistencyError struct {
	Issues []orgchart.Issue
}

func (e *ConsistencyError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Message
	}
	return "batch would leave the org chart inconsistent: " + strings.Join(msgs, "; ")
}
