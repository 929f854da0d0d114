package payment

import (
	"fmt"
	"regexp"
)

// ReferenceResolver extracts a campaign identifier from a notification. It
// is a pure function over strings: an explicit order reference wins, then
// the free-text memo is scanned for a recognized token. Memos are typed by
// humans, so no match is an expected outcome, never an error.
type ReferenceResolver struct {
	patterns []*regexp.Regexp
	bareID   *regexp.Regexp
}

func NewReferenceResolver(prefix string) *ReferenceResolver {
	quoted := regexp.QuoteMeta(prefix)
	return &ReferenceResolver{
		patterns: []*regexp.Regexp{
			// PREFIX#123, PREFIX-123, PREFIX123
			regexp.MustCompile(fmt.Sprintf(`(?i)\b%s[#-]?([0-9]+)\b`, quoted)),
			// PREFIX#<uuid>
			regexp.MustCompile(fmt.Sprintf(`(?i)\b%s[#-]?([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})\b`, quoted)),
		},
		bareID: regexp.MustCompile(`(?i)^([0-9]+|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`),
	}
}

// Resolve returns the campaign identifier and whether one was found.
func (r *ReferenceResolver) Resolve(orderRef, memo string) (string, bool) {
	if orderRef != "" {
		if r.bareID.MatchString(orderRef) {
			return orderRef, true
		}
		if id, ok := r.scan(orderRef); ok {
			return id, true
		}
	}

	return r.scan(memo)
}

func (r *ReferenceResolver) scan(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, re := range r.patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}
