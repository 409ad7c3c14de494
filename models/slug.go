package models

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
)

// Slug derives the article page path from a title and its content item id.
// "Black Friday Deals!" with id 42 becomes "black-friday-deals42".
func Slug(title string, id int64) string {
	s := strings.ToLower(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaces.ReplaceAllString(s, "-")
	return s + strconv.FormatInt(id, 10)
}
