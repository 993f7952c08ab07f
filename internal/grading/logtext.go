package grading

import (
	"regexp"
	"strings"
)

var logLevelPrefix = regexp.MustCompile(`\[\w+\] `)

// flattenLog squashes the backend's multi-line log into one log record.
func flattenLog(log string) string {
	return strings.ReplaceAll(logLevelPrefix.ReplaceAllString(log, ""), "\n", ". ")
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
