package validate

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxLen(value string, max int) bool {
	return len(strings.TrimSpace(value)) <= max
}

func LenBetween(value string, min, max int) bool {
	n := len(strings.TrimSpace(value))
	return n >= min && n <= max
}

func Email(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}
