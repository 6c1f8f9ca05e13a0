// Package env reads process settings that are needed before config.Load runs.
package env

import (
	"os"
	"strconv"
	"strings"
)

// String returns the trimmed value of key, or fallback when it is unset or blank.
func String(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Bool parses key as a boolean. Unset or unparsable values yield fallback.
func Bool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(String(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}
