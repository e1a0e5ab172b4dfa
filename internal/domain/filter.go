package domain

import (
	"net/url"
	"regexp"
	"sort"
)

// FilterPolicy decides which requests are passed through unlogged.
// A nil set means "not configured"; an empty policy ignores nothing.
type FilterPolicy struct {
	IgnoredHosts    map[string]struct{}
	IgnoredURLs     map[string]struct{}
	IgnoredPatterns []*regexp.Regexp
}

// FilterView is the inspectable form of a FilterPolicy.
type FilterView struct {
	IgnoredHosts    []string `json:"ignoredHosts,omitempty"`
	IgnoredURLs     []string `json:"ignoredUrls,omitempty"`
	IgnoredPatterns []string `json:"ignoredPatterns,omitempty"`
}

// StringSet builds a set from values, or nil when values is nil.
func StringSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// ShouldIgnore reports whether the request matches any exclusion rule.
// Hosts are compared on the parsed hostname, URLs verbatim, and patterns are
// matched against "METHOD URL".
func (p FilterPolicy) ShouldIgnore(method, rawURL string) bool {
	if len(p.IgnoredHosts) > 0 {
		if u, err := url.Parse(rawURL); err == nil {
			if _, ok := p.IgnoredHosts[u.Hostname()]; ok {
				return true
			}
		}
	}
	if _, ok := p.IgnoredURLs[rawURL]; ok {
		return true
	}
	if len(p.IgnoredPatterns) > 0 {
		candidate := method + " " + rawURL
		for _, re := range p.IgnoredPatterns {
			if re != nil && re.MatchString(candidate) {
				return true
			}
		}
	}
	return false
}

// Describe returns a sorted, serializable view of the policy.
func (p FilterPolicy) Describe() FilterView {
	v := FilterView{
		IgnoredHosts: sortedKeys(p.IgnoredHosts),
		IgnoredURLs:  sortedKeys(p.IgnoredURLs),
	}
	for _, re := range p.IgnoredPatterns {
		if re != nil {
			v.IgnoredPatterns = append(v.IgnoredPatterns, re.String())
		}
	}
	return v
}

func sortedKeys(m map[string]struct{}) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
