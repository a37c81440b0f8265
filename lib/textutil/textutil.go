package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeToken(token string) string {
	token = strings.Trim(token, " \n\t")
	token = whitespaceRegex.ReplaceAllString(token, " ")
	return token
}

// case-insensitive substring match, used to match a partial roll
// number against a full registration number
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
