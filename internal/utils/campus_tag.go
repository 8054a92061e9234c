package utils

import (
	"fmt"
	"math/rand"
	"strings"
)

// GenerateCampusTag generates a campus tag in format #WORD-123
func GenerateCampusTag(name string) string {
	words := strings.Fields(name)
	prefix := "USER"
	if len(words) > 0 {
		prefix = strings.ToUpper(words[0])
	}
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}

	// Random 3-digit suffix
	number := rand.Intn(900) + 100 // 100-999

	return fmt.Sprintf("#%s-%d", prefix, number)
}

// ValidateCampusTag validates the format of a campus tag
func ValidateCampusTag(tag string) bool {
	if len(tag) < 5 || tag[0] != '#' {
		return false
	}

	parts := strings.Split(tag[1:], "-")
	return len(parts) == 2
}
