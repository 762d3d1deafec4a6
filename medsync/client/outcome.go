package client

import (
	"encoding/json"
	"net/http"
	"strings"

	customErrors "github.com/medsync-health/medsync-app/medsync/errors"
	"github.com/medsync-health/medsync-app/medsync/models/fhir"
)

// translateError turns a non-2xx response into a single normalized error.
// It never returns nil and never panics on malformed bodies: when the body
// is not a parseable OperationOutcome the status line is all we report.
func translateError(statusCode int, statusText string, header http.Header, body []byte) error {
	if isJSONContentType(header.Get("Content-Type")) {
		var outcome fhir.OperationOutcome
		if err := json.Unmarshal(body, &outcome); err == nil &&
			outcome.ResourceType == fhir.TypeOperationOutcome && len(outcome.Issue) > 0 {

			msgs := make([]string, 0, len(outcome.Issue))
			for _, issue := range outcome.Issue {
				if issue.Diagnostics != "" {
					msgs = append(msgs, issue.Diagnostics)
				} else if issue.Details != nil && issue.Details.Text != "" {
					msgs = append(msgs, issue.Details.Text)
				} else if issue.Code != "" {
					msgs = append(msgs, issue.Code)
				}
			}
			if len(msgs) > 0 {
				return &customErrors.OperationOutcomeError{Messages: msgs, StatusCode: statusCode}
			}
		}
	}

	return &customErrors.UnexpectedStatusCodeError{StatusCode: statusCode, Status: statusText}
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "json")
}
