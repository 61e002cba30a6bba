// utils/validation.go
package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	// Trim spaces
	input = strings.TrimSpace(input)

	// HTML escape
	input = html.EscapeString(input)

	// Remove control characters
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	// Remove any potential script tags
	scriptRegex := regexp.MustCompile(`<script[^>]*>.*?</script>`)
	input = scriptRegex.ReplaceAllString(input, "")

	return input
}

// SanitizeHiveAccount normalizes a Hive account name. Account names are
// lowercase, 3 to 16 characters, and may carry a leading @ in user input.
func SanitizeHiveAccount(account string) (string, error) {
	account = strings.ToLower(strings.TrimSpace(account))
	account = strings.TrimPrefix(account, "@")

	accountRegex := regexp.MustCompile(`^[a-z][a-z0-9.-]{2,15}$`)
	if !accountRegex.MatchString(account) {
		return "", errors.New("invalid hive account name")
	}

	return account, nil
}

// SanitizeStringArray sanitizes an array of strings
func SanitizeStringArray(inputs []string) []string {
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = SanitizeInput(input)
	}
	return sanitized
}
