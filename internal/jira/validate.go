package jira

import (
	"regexp"
	"strings"
)

var issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)

// ValidateInstance checks that an instance looks like a bare hostname,
// e.g. "company.atlassian.net". Schemes and paths belong to the
// client, not the config.
func ValidateInstance(instance string) error {
	if instance == "" {
		return errConfig("instance cannot be empty")
	}
	if strings.Contains(instance, "://") {
		return errConfig("instance must be a hostname without a scheme: " + instance)
	}
	if strings.ContainsAny(instance, "/ ") {
		return errConfig("instance must be a hostname without a path: " + instance)
	}
	if !strings.Contains(instance, ".") {
		return errConfig("instance must be a fully qualified hostname: " + instance)
	}
	return nil
}

// ValidateIssueKey checks the PROJECT-123 shape.
func ValidateIssueKey(key string) error {
	if !issueKeyPattern.MatchString(key) {
		return errValidation("invalid issue key: " + key)
	}
	return nil
}
