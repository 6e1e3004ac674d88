// Package sqlutil quotes the configurable identifiers used in history SQL.
package sqlutil

import (
	"regexp"
	"strings"
)

// maxIdentifierLength is MySQL's limit for table names.
const maxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// QuoteIdentifier wraps name in backticks, doubling embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsValidIdentifier accepts 1-64 characters of [A-Za-z0-9_].
func IsValidIdentifier(name string) bool {
	return len(name) <= maxIdentifierLength && identifierPattern.MatchString(name)
}

// QuoteIdentifierSafe validates name before quoting it.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError reports an identifier rejected by QuoteIdentifierSafe.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must be 1-64 alphanumeric characters or underscores)"
}
