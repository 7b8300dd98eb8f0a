package mapping

import (
	"regexp"
	"strings"
)

// RolePolicy selects how UI role values translate to the backend vocabulary.
type RolePolicy string

const (
	// RolePassThrough forwards the trimmed role string unchanged.
	RolePassThrough RolePolicy = "passthrough"
	// RoleKeywordBucket collapses free-text roles into a small set of
	// data-role labels by keyword match.
	RoleKeywordBucket RolePolicy = "keyword"
)

// ParseRolePolicy resolves a configured policy name, defaulting to
// RolePassThrough for unrecognized values.
func ParseRolePolicy(value string) RolePolicy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RoleKeywordBucket):
		return RoleKeywordBucket
	default:
		return RolePassThrough
	}
}

const defaultBucketRole = "Data Analyst"

var roleBuckets = []struct {
	keyword string
	label   string
}{
	{"scientist", "Data Scientist"},
	{"science", "Data Scientist"},
	{"ml", "ML Engineer"},
	{"machine learning", "ML Engineer"},
	{"engineer", "Data Engineer"},
	{"analyst", "Data Analyst"},
}

// MapRole translates a UI role value for the prediction API. Total: every
// input maps to a non-surprising backend value under either policy.
func MapRole(role string, policy RolePolicy) string {
	trimmed := strings.TrimSpace(role)
	if policy != RoleKeywordBucket {
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	for _, bucket := range roleBuckets {
		if strings.Contains(lower, bucket.keyword) {
			return bucket.label
		}
	}
	return defaultBucketRole
}

// MapGender normalizes a display gender to the two backend tokens. Anything
// other than a case-insensitive "female" collapses to "male", including
// Non-binary and empty input.
func MapGender(gender string) string {
	if strings.EqualFold(strings.TrimSpace(gender), "female") {
		return "female"
	}
	return "male"
}

var (
	isoCodeRe      = regexp.MustCompile(`^[A-Z]{2}$`)
	trailingCodeRe = regexp.MustCompile(`\(([A-Z]{2})\)$`)
)

// MapLocation extracts the ISO-2 country code the prediction API expects.
// Exact two-letter codes win, then a trailing parenthesized code, then "US".
func MapLocation(location string) string {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return "US"
	}
	if isoCodeRe.MatchString(trimmed) {
		return trimmed
	}
	if m := trailingCodeRe.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return "US"
}
