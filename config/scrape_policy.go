package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ScrapePolicyConfig limits which hosts the pipeline may scrape. An empty allow list
// permits every host that is not disallowed.
type ScrapePolicyConfig struct {
	Allow    []string `mapstructure:"allow" json:"allow"`
	Disallow []string `mapstructure:"disallow" json:"disallow"`
}

// Normalize lowercases hosts, strips www. and removes duplicates.
func (c ScrapePolicyConfig) Normalize() ScrapePolicyConfig {
	return ScrapePolicyConfig{
		Allow:    normalizeHosts(c.Allow),
		Disallow: normalizeHosts(c.Disallow),
	}
}

// Validate rejects hosts that are both allowed and disallowed.
func (c ScrapePolicyConfig) Validate() error {
	norm := c.Normalize()
	allowed := make(map[string]struct{}, len(norm.Allow))
	for _, host := range norm.Allow {
		allowed[host] = struct{}{}
	}
	for _, host := range norm.Disallow {
		if _, ok := allowed[host]; ok {
			return fmt.Errorf("scrape policy conflict: host %q is both allowed and disallowed", host)
		}
	}
	return nil
}

// Permits reports whether rawURL may be scraped. Subdomains inherit their parent's rule.
func (c ScrapePolicyConfig) Permits(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, blocked := range c.Disallow {
		if matchesHost(host, blocked) {
			return false
		}
	}
	if len(c.Allow) == 0 {
		return true
	}
	for _, ok := range c.Allow {
		if matchesHost(host, ok) {
			return true
		}
	}
	return false
}

func matchesHost(host, rule string) bool {
	return host == rule || strings.HasSuffix(host, "."+rule)
}

func normalizeHosts(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		host := hostOf(raw)
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func hostOf(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
