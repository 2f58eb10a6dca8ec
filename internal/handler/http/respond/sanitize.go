package respond

import (
	"regexp"
)

var (
	// Source API keys travel as query parameters on upstream fetch URLs
	// (e.g. api-key=... on newspaper content APIs) and show up verbatim in
	// wrapped fetch errors.
	apiKeyParamPattern = regexp.MustCompile(`(?i)(api[-_]?key=)[a-zA-Z0-9-_]+`)

	// Database passwords embedded in a DSN.
	dbPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError returns the error message with credentials masked so it can
// be logged safely.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = apiKeyParamPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
