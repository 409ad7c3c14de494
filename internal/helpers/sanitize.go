package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	pagePolicyOnce sync.Once
	pagePolicy     *bluemonday.Policy
)

// StrictHTMLPolicy strips every element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// PageHTMLPolicy keeps the structural subset of a scraped page (text blocks, lists,
// tables and links) and drops scripts, styles, forms and embedded media together
// with their contents.
func PageHTMLPolicy() *bluemonday.Policy {
	pagePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("main", "article", "section", "header", "footer", "nav", "figure", "figcaption")
		policy.AllowURLSchemes("http", "https")
		policy.AllowRelativeURLs(true)
		policy.RequireParseableURLs(true)
		pagePolicy = policy
	})
	return pagePolicy
}

// SanitizeHTMLStrict returns the plain-text remainder of s with surrounding whitespace removed.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// SanitizePageHTML cleans a full scraped document with PageHTMLPolicy.
func SanitizePageHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return PageHTMLPolicy().Sanitize(s)
}
